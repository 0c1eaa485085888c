package repository

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/oggyb/shuttle-league/internal/db"
)

// UserRepository is the read side of the identity directory.
// Accounts are created and managed elsewhere; the match log only resolves them.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// ResolveUsers loads the given accounts in a single query, keyed by ID.
// Unknown IDs are simply absent from the result.
//
// Example:
//
//	repo.ResolveUsers(ctx, []uint64{1, 2, 3}) // -> map[1:{..} 2:{..}] when 3 does not exist
func (r *UserRepository) ResolveUsers(ctx context.Context, ids []uint64) (map[uint64]db.User, error) {
	out := make(map[uint64]db.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Exists reports whether an account with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// DisplayName is the username, then the email, then a placeholder for unknown accounts.
func DisplayName(id uint64, users map[uint64]db.User) string {
	if u, ok := users[id]; ok {
		if u.Username != "" {
			return u.Username
		}
		if u.Email != "" {
			return u.Email
		}
	}
	return "player-" + strconv.FormatUint(id, 10)
}
