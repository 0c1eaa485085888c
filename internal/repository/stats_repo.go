package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/shuttle-league/internal/db"
	"github.com/oggyb/shuttle-league/internal/rating"
	"github.com/oggyb/shuttle-league/internal/utils/pagination"
)

// StatsRepository stores one aggregate stats row per player and the rating audit trail.
// Ranks are never stored; they are counted live from this table.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new repository bound to the given DB connection.
func NewStatsRepository(database *gorm.DB) *StatsRepository {
	return &StatsRepository{db: database}
}

// WithTx returns a copy of the repository that runs every query on tx.
func (r *StatsRepository) WithTx(tx *gorm.DB) *StatsRepository {
	return &StatsRepository{db: tx}
}

// GetOrCreate returns the stats row of a player, inserting the default
// row (rating 1000, 0 wins, 0 losses) on first access.
func (r *StatsRepository) GetOrCreate(ctx context.Context, userID uint64) (*db.UserMatchStats, error) {
	if err := r.ensure(r.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}
	var s db.UserMatchStats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ensure inserts the default row unless one exists; racing inserts collapse on the unique user_id.
func (r *StatsRepository) ensure(tx *gorm.DB, userID uint64) error {
	row := db.UserMatchStats{UserID: userID, Rating: rating.DefaultRating}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to init stats for user %d: %w", userID, err)
	}
	return nil
}

// RecordOutcome applies one match outcome to a player's stats.
//
// Behavior:
//   - Creates the stats row lazily, then re-reads it under a row lock.
//   - Applies rating.Apply (fixed win/loss deltas, floor at 1) and writes the new values.
//   - Inserts a RatingChange row; its unique (request_id, user_id) index refuses
//     a second application of the same request to the same player.
//   - Runs in its own transaction, or a savepoint when r is bound to a tx.
func (r *StatsRepository) RecordOutcome(
	ctx context.Context,
	requestID, userID uint64,
	won bool,
) (*db.RatingChange, error) {
	var change db.RatingChange

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensure(tx, userID); err != nil {
			return err
		}

		var s db.UserMatchStats
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&s).Error; err != nil {
			return err
		}

		before := s.Rating
		next := rating.Apply(rating.Record{Wins: s.Wins, Losses: s.Losses, Rating: s.Rating}, won)

		if err := tx.Model(&s).Updates(map[string]any{
			"wins":   next.Wins,
			"losses": next.Losses,
			"rating": next.Rating,
		}).Error; err != nil {
			return fmt.Errorf("failed to update stats for user %d: %w", userID, err)
		}

		change = db.RatingChange{
			RequestID:    requestID,
			UserID:       userID,
			Won:          won,
			RatingBefore: before,
			RatingAfter:  next.Rating,
			Delta:        next.Rating - before,
		}
		if err := tx.Create(&change).Error; err != nil {
			return fmt.Errorf("failed to record rating change for user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// CountBetterRanked counts players ranked strictly above (rating, userID):
// higher rating, or equal rating and lower user id.
//
// Example:
//
//	n, _ := repo.CountBetterRanked(ctx, 1025, 7)
//	rank := n + 1
func (r *StatsRepository) CountBetterRanked(ctx context.Context, score int, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.UserMatchStats{}).
		Where("rating > ? OR (rating = ? AND user_id < ?)", score, score, userID).
		Count(&count).Error
	return count, err
}

// ListRanked returns stats rows in rank order (rating DESC, user_id ASC).
//
// Behavior:
//   - after = nil or empty → start from the top.
//   - Otherwise only rows ranked strictly below the cursor position are returned.
//   - limit <= 0 → no limit.
func (r *StatsRepository) ListRanked(
	ctx context.Context,
	after *pagination.Cursor,
	limit int,
) ([]db.UserMatchStats, error) {
	var out []db.UserMatchStats

	query := r.db.WithContext(ctx).
		Model(&db.UserMatchStats{}).
		Order("rating DESC, user_id ASC")
	if after != nil && !after.Empty() {
		query = query.Where(
			"(rating < ? OR (rating = ? AND user_id > ?))",
			after.Rating, after.Rating, after.UserID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&out).Error
	return out, err
}

// RatingHistory returns the rating changes of a player, newest first.
func (r *StatsRepository) RatingHistory(ctx context.Context, userID uint64) ([]db.RatingChange, error) {
	var out []db.RatingChange
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
