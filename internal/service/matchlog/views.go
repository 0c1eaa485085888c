package matchlog

import (
	"time"

	"github.com/oggyb/shuttle-league/internal/db"
	"github.com/oggyb/shuttle-league/internal/repository"
)

// UserRef identifies a player by id and display name.
type UserRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// ParticipantView is one player's side and decision on a request.
type ParticipantView struct {
	UserID   uint64 `json:"userId"`
	Username string `json:"username"`
	Side     string `json:"side"`
	Decision string `json:"decision"`
}

// MatchRequestView is a request as seen by one viewer.
type MatchRequestView struct {
	ID           uint64            `json:"id"`
	MatchName    string            `json:"matchName"`
	MatchFormat  string            `json:"matchFormat"`
	WinnerSide   string            `json:"winnerSide"`
	Points       *string           `json:"points"`
	Status       string            `json:"status"`
	CreatedBy    UserRef           `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	CanRespond   bool              `json:"canRespond"`
	Participants []ParticipantView `json:"participants"`
}

// MatchHistoryItem is an approved request reshaped around the viewer's result.
type MatchHistoryItem struct {
	ID                uint64    `json:"id"`
	MatchName         string    `json:"matchName"`
	MatchFormat       string    `json:"matchFormat"`
	Points            *string   `json:"points"`
	WinnerSide        string    `json:"winnerSide"`
	CreatedByUsername string    `json:"createdByUsername"`
	CreatedAt         time.Time `json:"createdAt"`
	UserWon           bool      `json:"userWon"`
	UserTeamSide      string    `json:"userTeamSide"`
	TeamUsernames     []string  `json:"teamUsernames"`
	OpponentUsernames []string  `json:"opponentUsernames"`
}

func toView(req *db.MatchRequest, participants []db.Participant, viewerID uint64, users map[uint64]db.User) MatchRequestView {
	out := MatchRequestView{
		ID:          req.ID,
		MatchName:   req.MatchName,
		MatchFormat: string(req.MatchFormat),
		WinnerSide:  string(req.WinnerSide),
		Points:      req.Points,
		Status:      string(req.Status),
		CreatedBy: UserRef{
			ID:       req.CreatedByUserID,
			Username: repository.DisplayName(req.CreatedByUserID, users),
		},
		CreatedAt:    req.CreatedAt,
		CanRespond:   canRespond(req, participants, viewerID),
		Participants: make([]ParticipantView, 0, len(participants)),
	}
	for _, p := range participants {
		out.Participants = append(out.Participants, ParticipantView{
			UserID:   p.UserID,
			Username: repository.DisplayName(p.UserID, users),
			Side:     string(p.TeamSide),
			Decision: string(p.Decision),
		})
	}
	return out
}

// toHistoryItem returns false when the viewer has no row on the request.
func toHistoryItem(req *db.MatchRequest, participants []db.Participant, viewerID uint64, users map[uint64]db.User) (MatchHistoryItem, bool) {
	var mine *db.Participant
	for i := range participants {
		if participants[i].UserID == viewerID {
			mine = &participants[i]
			break
		}
	}
	if mine == nil {
		return MatchHistoryItem{}, false
	}

	item := MatchHistoryItem{
		ID:                req.ID,
		MatchName:         req.MatchName,
		MatchFormat:       string(req.MatchFormat),
		Points:            req.Points,
		WinnerSide:        string(req.WinnerSide),
		CreatedByUsername: repository.DisplayName(req.CreatedByUserID, users),
		CreatedAt:         req.CreatedAt,
		UserWon:           mine.TeamSide == req.WinnerSide,
		UserTeamSide:      string(mine.TeamSide),
		TeamUsernames:     []string{},
		OpponentUsernames: []string{},
	}
	for _, p := range participants {
		name := repository.DisplayName(p.UserID, users)
		if p.TeamSide == db.SideTeam {
			item.TeamUsernames = append(item.TeamUsernames, name)
		} else {
			item.OpponentUsernames = append(item.OpponentUsernames, name)
		}
	}
	return item, true
}

// groupByRequest splits live participant rows per request, keeping their order.
func groupByRequest(participants []db.Participant) map[uint64][]db.Participant {
	out := make(map[uint64][]db.Participant)
	for _, p := range participants {
		out[p.RequestID] = append(out[p.RequestID], p)
	}
	return out
}

// userIDsOf collects every participant and creator id referenced by the requests.
func userIDsOf(requests []db.MatchRequest, participants []db.Participant) []uint64 {
	ids := make([]uint64, 0, len(participants)+len(requests))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	for _, r := range requests {
		ids = append(ids, r.CreatedByUserID)
	}
	return dedupe(ids)
}
