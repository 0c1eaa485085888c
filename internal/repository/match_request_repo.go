package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/shuttle-league/internal/db"
)

// MatchRequestRepository provides data access for match requests and their participants.
// Requests and participants are always written together and never deleted.
type MatchRequestRepository struct {
	db *gorm.DB
}

// NewMatchRequestRepository creates a new repository bound to the given DB connection.
func NewMatchRequestRepository(database *gorm.DB) *MatchRequestRepository {
	return &MatchRequestRepository{db: database}
}

// WithTx returns a copy of the repository that runs every query on tx.
func (r *MatchRequestRepository) WithTx(tx *gorm.DB) *MatchRequestRepository {
	return &MatchRequestRepository{db: tx}
}

// CreateWithParticipants inserts a request and its participant rows as one unit.
//
// Behavior:
//   - The request is inserted first so its ID can be stamped on every participant.
//   - Both inserts share one transaction (a savepoint when r is already bound to a tx),
//     so readers never observe a request without participants.
//   - The (request_id, user_id) unique index rejects duplicate players.
func (r *MatchRequestRepository) CreateWithParticipants(
	ctx context.Context,
	req *db.MatchRequest,
	participants []db.Participant,
) error {
	if len(participants) == 0 {
		return fmt.Errorf("match request needs participants")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(req).Error; err != nil {
			return fmt.Errorf("failed to create match request: %w", err)
		}
		for i := range participants {
			participants[i].RequestID = req.ID
		}
		if err := tx.Create(&participants).Error; err != nil {
			return fmt.Errorf("failed to create participants: %w", err)
		}
		req.Participants = participants
		return nil
	})
}

// FindByID loads one request. Returns gorm.ErrRecordNotFound when it does not exist.
func (r *MatchRequestRepository) FindByID(ctx context.Context, id uint64) (*db.MatchRequest, error) {
	var req db.MatchRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindByIDForUpdate loads one request holding a row lock until the surrounding
// transaction ends. Concurrent responders on the same request queue behind it.
// SQLite has no row locks; its single-writer transactions give the same ordering.
func (r *MatchRequestRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*db.MatchRequest, error) {
	var req db.MatchRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// FindParticipant returns the participant row of userID on requestID,
// or gorm.ErrRecordNotFound when the user is not part of the request.
func (r *MatchRequestRepository) FindParticipant(ctx context.Context, requestID, userID uint64) (*db.Participant, error) {
	var p db.Participant
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND user_id = ?", requestID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParticipantsFor returns every participant of the given requests, read live from the store.
// Ordered by request, then insertion order (TEAM players first, as created).
func (r *MatchRequestRepository) ParticipantsFor(ctx context.Context, requestIDs []uint64) ([]db.Participant, error) {
	var out []db.Participant
	if len(requestIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Order("request_id ASC, id ASC").
		Find(&out).Error
	return out, err
}

// RecordDecision stores a participant's decision and when it was made.
func (r *MatchRequestRepository) RecordDecision(
	ctx context.Context,
	participantID uint64,
	decision db.Decision,
	at time.Time,
) error {
	return r.db.WithContext(ctx).
		Model(&db.Participant{}).
		Where("id = ?", participantID).
		Updates(map[string]any{
			"decision":     decision,
			"responded_at": at,
		}).Error
}

// TransitionStatus moves a request from one status to another.
//
// Behavior:
//   - The update is conditional on the current status (compare-and-set).
//   - Returns false when no row matched, i.e. another writer already moved the request.
//
// Example:
//
//	ok, err := repo.TransitionStatus(ctx, 9, db.StatusPending, db.StatusApproved)
func (r *MatchRequestRepository) TransitionStatus(
	ctx context.Context,
	id uint64,
	from, to db.RequestStatus,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.MatchRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListForParticipant returns requests the user takes part in, newest first.
//
// Behavior:
//   - Joins participants on user_id, so each request appears once per user.
//   - Optional status filter (nil = every status).
//   - Ordered by created_at DESC, id DESC for a stable order on equal timestamps.
func (r *MatchRequestRepository) ListForParticipant(
	ctx context.Context,
	userID uint64,
	status *db.RequestStatus,
) ([]db.MatchRequest, error) {
	var out []db.MatchRequest

	query := r.db.WithContext(ctx).
		Table("match_requests mr").
		Select("mr.*").
		Joins("JOIN participants p ON p.request_id = mr.id").
		Where("p.user_id = ?", userID)
	if status != nil {
		query = query.Where("mr.status = ?", *status)
	}

	err := query.Order("mr.created_at DESC, mr.id DESC").Find(&out).Error
	return out, err
}

// CountAwaitingDecision counts PENDING requests where the user's own decision is still PENDING.
func (r *MatchRequestRepository) CountAwaitingDecision(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("participants p").
		Joins("JOIN match_requests mr ON mr.id = p.request_id").
		Where("p.user_id = ? AND p.decision = ? AND mr.status = ?", userID, db.DecisionPending, db.StatusPending).
		Count(&count).Error
	return count, err
}
