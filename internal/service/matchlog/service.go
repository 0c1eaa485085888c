package matchlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/db"
	svcErr "github.com/oggyb/shuttle-league/internal/errors"
	"github.com/oggyb/shuttle-league/internal/events"
	"github.com/oggyb/shuttle-league/internal/logger"
	"github.com/oggyb/shuttle-league/internal/repository"
)

// Service implements the match result confirmation workflow.
// Every mutating operation runs in one DB transaction; cache invalidation and
// event publishing happen only after that transaction commits.
type Service struct {
	appCtx   *app.AppContext
	requests *repository.MatchRequestRepository
	users    *repository.UserRepository
	stats    *repository.StatsRepository
}

// NewMatchLogService creates the workflow service with dependencies from AppContext.
func NewMatchLogService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		requests: repository.NewMatchRequestRepository(appCtx.DB),
		users:    repository.NewUserRepository(appCtx.DB),
		stats:    repository.NewStatsRepository(appCtx.DB),
	}
}

// CreateRequest records a proposed outcome and its participants.
//
// Behavior:
//   - Validates the input and injects the actor into TEAM when listed on neither side.
//   - Resolves every player in one lookup before any write.
//   - Winning-side players and the creator start ACCEPTED, everyone else PENDING.
//   - Request and participants are inserted in one transaction.
func (s *Service) CreateRequest(ctx context.Context, actorID uint64, in CreateInput) (*MatchRequestView, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("CreateRequest called", "actor", actorID, "format", in.MatchFormat, "winner", in.WinnerSide)

	n, err := normalizeCreate(actorID, in)
	if err != nil {
		return nil, err
	}

	ids := n.playerIDs()
	users, err := s.users.ResolveUsers(ctx, ids)
	if err != nil {
		log.Error("ResolveUsers failed", "err", err)
		return nil, fmt.Errorf("failed to resolve players: %w", err)
	}
	if len(users) != len(ids) {
		return nil, svcErr.InvalidArgument("players do not exist")
	}

	now := time.Now()
	req := &db.MatchRequest{
		CreatedByUserID: actorID,
		MatchName:       n.matchName,
		MatchFormat:     n.format,
		WinnerSide:      n.winner,
		Points:          n.points,
		Status:          db.StatusPending,
	}
	participants := make([]db.Participant, 0, len(ids))
	add := func(userID uint64, side db.TeamSide) {
		p := db.Participant{
			UserID:   userID,
			TeamSide: side,
			Decision: initialDecision(side, n.winner, userID, actorID),
		}
		if p.Decision == db.DecisionAccepted {
			p.RespondedAt = &now
		}
		participants = append(participants, p)
	}
	for _, id := range n.team {
		add(id, db.SideTeam)
	}
	for _, id := range n.opponents {
		add(id, db.SideOpponent)
	}

	if err := s.requests.CreateWithParticipants(ctx, req, participants); err != nil {
		log.Error("CreateWithParticipants failed", "err", err)
		return nil, err
	}

	s.invalidatePending(ctx, participants)
	s.publish(ctx, events.SubjectRequestCreated, req, participants, nil)

	view := toView(req, participants, actorID, users)
	log.Debug("CreateRequest result", "request", req.ID, "participants", len(participants))
	return &view, nil
}

// Inbox returns every request the actor takes part in, newest first, whatever its status.
func (s *Service) Inbox(ctx context.Context, actorID uint64) ([]MatchRequestView, error) {
	logger.FromContext(ctx, s.appCtx.Logger).Debug("Inbox called", "actor", actorID)

	reqs, err := s.requests.ListForParticipant(ctx, actorID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	participants, users, err := s.load(ctx, reqs)
	if err != nil {
		return nil, err
	}

	byRequest := groupByRequest(participants)
	out := make([]MatchRequestView, 0, len(reqs))
	for i := range reqs {
		out = append(out, toView(&reqs[i], byRequest[reqs[i].ID], actorID, users))
	}
	return out, nil
}

// History returns the actor's APPROVED requests reshaped around their result, newest first.
func (s *Service) History(ctx context.Context, actorID uint64) ([]MatchHistoryItem, error) {
	logger.FromContext(ctx, s.appCtx.Logger).Debug("History called", "actor", actorID)

	approved := db.StatusApproved
	reqs, err := s.requests.ListForParticipant(ctx, actorID, &approved)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	participants, users, err := s.load(ctx, reqs)
	if err != nil {
		return nil, err
	}

	byRequest := groupByRequest(participants)
	out := make([]MatchHistoryItem, 0, len(reqs))
	for i := range reqs {
		if item, ok := toHistoryItem(&reqs[i], byRequest[reqs[i].ID], actorID, users); ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// Respond records the actor's decision and advances the request.
//
// Behavior:
//   - Unknown request and non-participant are checked before the decision is parsed.
//   - The request row is locked for the whole transaction, so concurrent
//     responders on one request are serialized.
//   - A PENDING request whose participants are all ACCEPTED is approved
//     whatever the incoming decision.
//   - A second decision is a conflict, except a repeated ACCEPTED in SINGLES which is a no-op.
//   - REJECTED ends the request. The ACCEPTED that completes unanimity approves it and
//     applies every participant's outcome in the same transaction.
//   - Status writes are compare-and-set; losing that race is reported as a conflict.
func (s *Service) Respond(ctx context.Context, actorID, requestID uint64, decisionValue string) (*MatchRequestView, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("Respond called", "actor", actorID, "request", requestID, "decision", decisionValue)

	var (
		req       *db.MatchRequest
		finalized db.RequestStatus
		deltas    map[uint64]int
	)

	txErr := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)

		var err error
		req, err = requests.FindByIDForUpdate(ctx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.NotFound("match request not found")
		} else if err != nil {
			return fmt.Errorf("failed to load match request %d: %w", requestID, err)
		}

		me, err := requests.FindParticipant(ctx, requestID, actorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return svcErr.PermissionDenied("not part of this match")
		} else if err != nil {
			return fmt.Errorf("failed to load participant: %w", err)
		}

		decision, err := ParseDecision(decisionValue)
		if err != nil {
			return err
		}

		if !mayRespond(req.MatchFormat, req.WinnerSide, me.TeamSide) {
			return svcErr.PermissionDenied("only losing team can approve or reject")
		}

		participants, err := requests.ParticipantsFor(ctx, []uint64{requestID})
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}

		if req.Status == db.StatusPending && allAccepted(participants) {
			deltas, err = s.approve(ctx, tx, req, participants)
			finalized = db.StatusApproved
			return err
		}

		reconfirm := req.MatchFormat == db.FormatSingles && decision == db.DecisionAccepted
		if me.Decision != db.DecisionPending && !reconfirm {
			return svcErr.Conflict("decision already submitted")
		}
		if req.Status.Terminal() {
			if me.Decision == db.DecisionPending {
				return svcErr.Conflict("match request is no longer pending")
			}
			return nil
		}
		if me.Decision != db.DecisionPending {
			return nil
		}

		if err := requests.RecordDecision(ctx, me.ID, decision, time.Now()); err != nil {
			return fmt.Errorf("failed to record decision: %w", err)
		}

		if decision == db.DecisionRejected {
			ok, err := requests.TransitionStatus(ctx, req.ID, db.StatusPending, db.StatusRejected)
			if err != nil {
				return fmt.Errorf("failed to reject match request: %w", err)
			}
			if !ok {
				return svcErr.Conflict("match request was already finalized")
			}
			req.Status = db.StatusRejected
			finalized = db.StatusRejected
			return nil
		}

		participants, err = requests.ParticipantsFor(ctx, []uint64{requestID})
		if err != nil {
			return fmt.Errorf("failed to reload participants: %w", err)
		}
		if !allAccepted(participants) {
			return nil
		}
		deltas, err = s.approve(ctx, tx, req, participants)
		finalized = db.StatusApproved
		return err
	})
	if txErr != nil {
		if svcErr.KindOf(txErr) == "" {
			log.Error("Respond failed", "request", requestID, "err", txErr)
		}
		return nil, txErr
	}

	participants, users, err := s.load(ctx, []db.MatchRequest{*req})
	if err != nil {
		return nil, err
	}

	s.invalidatePending(ctx, participants)
	switch finalized {
	case db.StatusApproved:
		s.publish(ctx, events.SubjectRequestApproved, req, participants, deltas)
	case db.StatusRejected:
		s.publish(ctx, events.SubjectRequestRejected, req, participants, nil)
	}

	view := toView(req, participants, actorID, users)
	log.Debug("Respond result", "request", req.ID, "status", req.Status, "finalized", finalized != "")
	return &view, nil
}

// approve moves req to APPROVED and applies one outcome per participant on tx.
// Returns each participant's rating delta.
func (s *Service) approve(
	ctx context.Context,
	tx *gorm.DB,
	req *db.MatchRequest,
	participants []db.Participant,
) (map[uint64]int, error) {
	ok, err := s.requests.WithTx(tx).TransitionStatus(ctx, req.ID, db.StatusPending, db.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to approve match request: %w", err)
	}
	if !ok {
		return nil, svcErr.Conflict("match request was already finalized")
	}
	req.Status = db.StatusApproved

	stats := s.stats.WithTx(tx)
	deltas := make(map[uint64]int, len(participants))
	for _, p := range participants {
		change, err := stats.RecordOutcome(ctx, req.ID, p.UserID, p.TeamSide == req.WinnerSide)
		if err != nil {
			return nil, err
		}
		deltas[p.UserID] = change.Delta
	}
	return deltas, nil
}

// CountPending returns how many PENDING requests still wait for the actor's own decision.
// Cache-first strategy:
//  1. Attempts to read from Redis (matchlog:pending:<id>), refreshing its TTL.
//  2. On a miss or Redis failure, falls back to the DB and re-populates the key.
func (s *Service) CountPending(ctx context.Context, actorID uint64) (int64, error) {
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("CountPending called", "actor", actorID)

	if s.appCtx.RedisCache != nil {
		n, ok, err := s.appCtx.RedisCache.GetPendingCount(ctx, actorID)
		if err != nil {
			log.Warn("pending count cache read failed", "err", err)
		} else if ok {
			return n, nil
		}
	}

	count, err := s.requests.CountAwaitingDecision(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending requests: %w", err)
	}

	if s.appCtx.RedisCache != nil {
		if err := s.appCtx.RedisCache.SetPendingCount(ctx, actorID, count); err != nil {
			log.Warn("pending count cache write failed", "err", err)
		}
	}
	return count, nil
}

// load reads the live participants of reqs and resolves every referenced account.
func (s *Service) load(ctx context.Context, reqs []db.MatchRequest) ([]db.Participant, map[uint64]db.User, error) {
	if len(reqs) == 0 {
		return nil, map[uint64]db.User{}, nil
	}
	ids := make([]uint64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}

	participants, err := s.requests.ParticipantsFor(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}
	users, err := s.users.ResolveUsers(ctx, userIDsOf(reqs, participants))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve players: %w", err)
	}
	return participants, users, nil
}

func (s *Service) invalidatePending(ctx context.Context, participants []db.Participant) {
	if s.appCtx.RedisCache == nil {
		return
	}
	ids := make([]uint64, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	if err := s.appCtx.RedisCache.InvalidatePending(ctx, ids...); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Warn("pending count invalidation failed", "err", err)
	}
}

// publish never fails the call; the transaction has already committed.
func (s *Service) publish(
	ctx context.Context,
	subject string,
	req *db.MatchRequest,
	participants []db.Participant,
	deltas map[uint64]int,
) {
	event := events.RequestEvent{
		RequestID:    req.ID,
		Status:       string(req.Status),
		MatchFormat:  string(req.MatchFormat),
		WinnerSide:   string(req.WinnerSide),
		Participants: make([]events.ParticipantOutcome, 0, len(participants)),
		OccurredAt:   time.Now().UTC(),
	}
	for _, p := range participants {
		outcome := events.ParticipantOutcome{
			UserID:   p.UserID,
			Side:     string(p.TeamSide),
			Decision: string(p.Decision),
		}
		if d, ok := deltas[p.UserID]; ok {
			outcome.RatingDelta = &d
		}
		event.Participants = append(event.Participants, outcome)
	}

	if err := s.appCtx.Events.Publish(ctx, subject, event); err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Warn("event publish failed", "subject", subject, "request", req.ID, "err", err)
	}
}
