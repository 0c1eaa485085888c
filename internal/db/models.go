package db

import (
	"time"
)

// MatchFormat is the team size of a reported match.
type MatchFormat string

const (
	FormatSingles MatchFormat = "SINGLES"
	FormatDoubles MatchFormat = "DOUBLES"
)

// TeamSize returns how many players each side must field.
func (f MatchFormat) TeamSize() int {
	if f == FormatSingles {
		return 1
	}
	return 2
}

// TeamSide identifies one of the two sides of a match.
type TeamSide string

const (
	SideTeam     TeamSide = "TEAM"
	SideOpponent TeamSide = "OPPONENT"
)

// Opposite returns the other side.
func (s TeamSide) Opposite() TeamSide {
	if s == SideTeam {
		return SideOpponent
	}
	return SideTeam
}

// RequestStatus is the lifecycle state of a MatchRequest.
// PENDING is the only non-terminal state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// Terminal reports whether no further transitions are allowed.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is a participant's answer to a MatchRequest.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
)

// User table. Owned by the identity layer; the match log only reads it.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// MatchRequest is one proposed match outcome awaiting confirmation.
//
// Indexes:
//   - idx_match_requests_status_created(status, created_at DESC)
//     Serves history scans restricted to APPROVED requests.
//
// Status only moves PENDING -> APPROVED or PENDING -> REJECTED; terminal rows are never updated.
type MatchRequest struct {
	ID              uint64        `gorm:"primaryKey;autoIncrement"`
	CreatedByUserID uint64        `gorm:"not null;index"`
	MatchName       string        `gorm:"size:120;not null"`
	MatchFormat     MatchFormat   `gorm:"size:20;not null"`
	WinnerSide      TeamSide      `gorm:"size:20;not null"`
	Points          *string       `gorm:"size:120"`
	Status          RequestStatus `gorm:"size:20;not null;index:idx_match_requests_status_created,priority:1"`
	CreatedAt       time.Time     `gorm:"autoCreateTime;index:idx_match_requests_status_created,priority:2,sort:desc"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime"`

	Participants []Participant `gorm:"foreignKey:RequestID"`
}

// LosingSide returns the side opposite the declared winner.
func (r *MatchRequest) LosingSide() TeamSide {
	return r.WinnerSide.Opposite()
}

// Participant is one player's stake in one MatchRequest.
//
// Indexes:
//   - idx_participant_request_user(request_id, user_id) UNIQUE
//     A player appears at most once per request.
//   - idx_participant_user_created(user_id, created_at DESC)
//     Serves inbox and history lookups for a player.
type Participant struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	RequestID   uint64     `gorm:"not null;uniqueIndex:idx_participant_request_user,priority:1"`
	UserID      uint64     `gorm:"not null;uniqueIndex:idx_participant_request_user,priority:2;index:idx_participant_user_created,priority:1"`
	TeamSide    TeamSide   `gorm:"size:20;not null"`
	Decision    Decision   `gorm:"size:20;not null"`
	RespondedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_participant_user_created,priority:2,sort:desc"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// UserMatchStats holds a player's aggregate record. Derived values
// (matches played, win rate, tier, rank) are computed at read time.
type UserMatchStats struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"uniqueIndex;not null;index:idx_stats_rating_user,priority:2"`
	Wins      int       `gorm:"not null;default:0"`
	Losses    int       `gorm:"not null;default:0"`
	Rating    int       `gorm:"not null;default:1000;index:idx_stats_rating_user,priority:1,sort:desc"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserMatchStats) TableName() string {
	return "user_match_stats"
}

// RatingChange audits one rating mutation caused by one approved request.
//
// Indexes:
//   - idx_rating_change_request_user(request_id, user_id) UNIQUE
//     An approved request is applied to a player at most once.
type RatingChange struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	RequestID    uint64    `gorm:"not null;uniqueIndex:idx_rating_change_request_user,priority:1"`
	UserID       uint64    `gorm:"not null;uniqueIndex:idx_rating_change_request_user,priority:2;index"`
	Won          bool      `gorm:"not null"`
	RatingBefore int       `gorm:"not null"`
	RatingAfter  int       `gorm:"not null"`
	Delta        int       `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// AllModels lists every table managed by AutoMigrate.
func AllModels() []any {
	return []any{&User{}, &MatchRequest{}, &Participant{}, &UserMatchStats{}, &RatingChange{}}
}
