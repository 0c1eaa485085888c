package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/shuttle-league/internal/app"
	svcErr "github.com/oggyb/shuttle-league/internal/errors"
	"github.com/oggyb/shuttle-league/internal/logger"
	"github.com/oggyb/shuttle-league/internal/rating"
	"github.com/oggyb/shuttle-league/internal/repository"
	"github.com/oggyb/shuttle-league/internal/utils/pagination"
)

// UserStats is a player's record with every derived value recomputed at read time.
type UserStats struct {
	UserID        uint64 `json:"userId"`
	Rank          int64  `json:"rank"`
	Rating        int    `json:"rating"`
	MatchesPlayed int    `json:"matchesPlayed"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	WinRate       int    `json:"winRate"`
	Tier          string `json:"tier"`
}

// LeaderboardEntry is one ranked row of the board.
type LeaderboardEntry struct {
	Rank     int64  `json:"rank"`
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	WinRate  int    `json:"winRate"`
	Tier     string `json:"tier"`
}

// LeaderboardPage is one keyset page of the board.
// NextPageToken is empty on the last page.
type LeaderboardPage struct {
	Entries       []LeaderboardEntry `json:"entries"`
	NextPageToken string             `json:"nextPageToken,omitempty"`
}

// RatingChange is one applied outcome in a player's rating history.
type RatingChange struct {
	RequestID    uint64    `json:"requestId"`
	Won          bool      `json:"won"`
	RatingBefore int       `json:"ratingBefore"`
	RatingAfter  int       `json:"ratingAfter"`
	Delta        int       `json:"delta"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Service serves the ranking side: per-player stats, the leaderboard and rating history.
// Ranks are never cached because any approval can move any player.
type Service struct {
	appCtx *app.AppContext
	stats  *repository.StatsRepository
	users  *repository.UserRepository
}

// NewStatsService creates the stats service over the shared app context.
func NewStatsService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		stats:  repository.NewStatsRepository(appCtx.DB),
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// GetUserStats returns a player's own stats with their live rank.
// Players may only read their own stats; the row is created on first read.
func (s *Service) GetUserStats(ctx context.Context, actorID, userID uint64) (*UserStats, error) {
	logger.FromContext(ctx, s.appCtx.Logger).Debug("GetUserStats called", "actor", actorID, "user", userID)

	if actorID != userID {
		return nil, svcErr.PermissionDenied("cannot view another player's stats")
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	row, err := s.stats.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	better, err := s.stats.CountBetterRanked(ctx, row.Rating, row.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to rank user %d: %w", userID, err)
	}

	return &UserStats{
		UserID:        userID,
		Rank:          better + 1,
		Rating:        row.Rating,
		MatchesPlayed: rating.MatchesPlayed(row.Wins, row.Losses),
		Wins:          row.Wins,
		Losses:        row.Losses,
		WinRate:       rating.WinRate(row.Wins, row.Losses),
		Tier:          string(rating.TierFor(row.Rating)),
	}, nil
}

// GetLeaderboard returns every rated player in rank order with dense ranks from 1.
func (s *Service) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	page, err := s.LeaderboardPage(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	return page.Entries, nil
}

// LeaderboardPage returns up to limit entries after the position encoded in pageToken.
//
// Behavior:
//   - Empty token starts at rank 1; limit <= 0 returns the rest of the board.
//   - Order is rating DESC, user_id ASC, the same order used for ranks.
//   - The first row's rank is counted live, so pages stay consistent with GetUserStats.
func (s *Service) LeaderboardPage(ctx context.Context, pageToken string, limit int) (*LeaderboardPage, error) {
	logger.FromContext(ctx, s.appCtx.Logger).Debug("LeaderboardPage called", "token", pageToken, "limit", limit)

	cursor, err := pagination.Decode(pageToken)
	if err != nil {
		return nil, svcErr.InvalidArgument("invalid page token")
	}

	fetch := 0
	if limit > 0 {
		fetch = limit + 1 // one extra row tells whether another page exists
	}
	rows, err := s.stats.ListRanked(ctx, &cursor, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}

	page := &LeaderboardPage{Entries: []LeaderboardEntry{}}
	if len(rows) == 0 {
		return page, nil
	}

	more := limit > 0 && len(rows) > limit
	if more {
		rows = rows[:limit]
	}

	rank := int64(1)
	if !cursor.Empty() {
		better, err := s.stats.CountBetterRanked(ctx, rows[0].Rating, rows[0].UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to rank page: %w", err)
		}
		rank = better + 1
	}

	ids := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.ResolveUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve players: %w", err)
	}

	for i, r := range rows {
		page.Entries = append(page.Entries, LeaderboardEntry{
			Rank:     rank + int64(i),
			UserID:   r.UserID,
			Username: repository.DisplayName(r.UserID, users),
			Rating:   r.Rating,
			Wins:     r.Wins,
			Losses:   r.Losses,
			WinRate:  rating.WinRate(r.Wins, r.Losses),
			Tier:     string(rating.TierFor(r.Rating)),
		})
	}

	if more {
		last := rows[len(rows)-1]
		token, err := pagination.Encode(pagination.Cursor{Rating: last.Rating, UserID: last.UserID})
		if err != nil {
			return nil, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// RatingHistory returns the rating changes of a player, newest first.
func (s *Service) RatingHistory(ctx context.Context, userID uint64) ([]RatingChange, error) {
	logger.FromContext(ctx, s.appCtx.Logger).Debug("RatingHistory called", "user", userID)

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.stats.RatingHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}

	out := make([]RatingChange, 0, len(rows))
	for _, r := range rows {
		out = append(out, RatingChange{
			RequestID:    r.RequestID,
			Won:          r.Won,
			RatingBefore: r.RatingBefore,
			RatingAfter:  r.RatingAfter,
			Delta:        r.Delta,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) requireUser(ctx context.Context, userID uint64) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	if !ok {
		return svcErr.NotFound("user not found")
	}
	return nil
}
