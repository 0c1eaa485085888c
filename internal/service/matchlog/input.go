package matchlog

import (
	"strings"
	"unicode/utf8"

	"github.com/oggyb/shuttle-league/internal/db"
	svcErr "github.com/oggyb/shuttle-league/internal/errors"
)

const maxTextLen = 120

// CreateInput is the proposed outcome submitted by a player.
type CreateInput struct {
	MatchName       string   `json:"matchName"`
	MatchFormat     string   `json:"matchFormat"`
	WinnerSide      string   `json:"winnerSide"`
	Points          *string  `json:"points,omitempty"`
	TeamUserIDs     []uint64 `json:"teamUserIds"`
	OpponentUserIDs []uint64 `json:"opponentUserIds"`
}

// normalizedInput is a CreateInput that passed every check not needing the store.
type normalizedInput struct {
	matchName string
	format    db.MatchFormat
	winner    db.TeamSide
	points    *string
	team      []uint64
	opponents []uint64
}

// playerIDs returns every listed player, TEAM first.
func (n *normalizedInput) playerIDs() []uint64 {
	out := make([]uint64, 0, len(n.team)+len(n.opponents))
	out = append(out, n.team...)
	return append(out, n.opponents...)
}

func normalizeCreate(actorID uint64, in CreateInput) (*normalizedInput, error) {
	format, err := parseFormat(in.MatchFormat)
	if err != nil {
		return nil, err
	}
	winner, err := parseSide(in.WinnerSide)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.MatchName)
	if name == "" {
		return nil, svcErr.InvalidArgument("match name is required")
	}
	if utf8.RuneCountInString(name) > maxTextLen {
		return nil, svcErr.InvalidArgument("match name must be at most 120 characters")
	}

	var points *string
	if in.Points != nil {
		if p := strings.TrimSpace(*in.Points); p != "" {
			if utf8.RuneCountInString(p) > maxTextLen {
				return nil, svcErr.InvalidArgument("points must be at most 120 characters")
			}
			points = &p
		}
	}

	team := dedupe(in.TeamUserIDs)
	opponents := dedupe(in.OpponentUserIDs)
	if !contains(team, actorID) && !contains(opponents, actorID) {
		team = append(team, actorID)
	}

	if err := validateTeams(format, team, opponents); err != nil {
		return nil, err
	}

	return &normalizedInput{
		matchName: name,
		format:    format,
		winner:    winner,
		points:    points,
		team:      team,
		opponents: opponents,
	}, nil
}

func validateTeams(format db.MatchFormat, team, opponents []uint64) error {
	for _, id := range team {
		if contains(opponents, id) {
			return svcErr.InvalidArgument("player in both teams")
		}
	}
	size := format.TeamSize()
	if len(team) != size || len(opponents) != size {
		if format == db.FormatSingles {
			return svcErr.InvalidArgument("singles requires exactly 1 player per team")
		}
		return svcErr.InvalidArgument("doubles requires exactly 2 players per team")
	}
	return nil
}

func parseFormat(v string) (db.MatchFormat, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	switch db.MatchFormat(v) {
	case db.FormatSingles, db.FormatDoubles:
		return db.MatchFormat(v), nil
	case "":
		return "", svcErr.InvalidArgument("match format is required")
	}
	return "", svcErr.InvalidArgument("invalid match format")
}

func parseSide(v string) (db.TeamSide, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	switch db.TeamSide(v) {
	case db.SideTeam, db.SideOpponent:
		return db.TeamSide(v), nil
	case "":
		return "", svcErr.InvalidArgument("winner side is required")
	}
	return "", svcErr.InvalidArgument("invalid winner side")
}

// ParseDecision accepts accept/accepted and reject/rejected in any case.
func ParseDecision(v string) (db.Decision, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ACCEPT", "ACCEPTED":
		return db.DecisionAccepted, nil
	case "REJECT", "REJECTED":
		return db.DecisionRejected, nil
	case "":
		return "", svcErr.InvalidArgument("decision is required")
	}
	return "", svcErr.InvalidArgument("invalid decision")
}

// dedupe keeps the first occurrence of every positive id.
func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func contains(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
