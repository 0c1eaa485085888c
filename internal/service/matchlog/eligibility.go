package matchlog

import "github.com/oggyb/shuttle-league/internal/db"

// mayRespond reports whether a participant on side may submit a decision.
// The losing side always may; in SINGLES the winner may too, so a lone
// player can self-report and the winner can confirm.
func mayRespond(format db.MatchFormat, winner, side db.TeamSide) bool {
	return side == winner.Opposite() || format == db.FormatSingles
}

// allAccepted is the unanimity check. It must be fed the live participant rows.
func allAccepted(participants []db.Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if p.Decision != db.DecisionAccepted {
			return false
		}
	}
	return true
}

// canRespond is computed per viewer for views.
func canRespond(req *db.MatchRequest, participants []db.Participant, viewerID uint64) bool {
	if req.Status != db.StatusPending {
		return false
	}
	singles := req.MatchFormat == db.FormatSingles
	for _, p := range participants {
		if p.UserID != viewerID {
			continue
		}
		if singles && p.TeamSide == req.WinnerSide {
			return true
		}
		return p.Decision == db.DecisionPending && mayRespond(req.MatchFormat, req.WinnerSide, p.TeamSide)
	}
	return false
}

// initialDecision applies the auto-accept rule at creation time.
func initialDecision(side, winner db.TeamSide, userID, creatorID uint64) db.Decision {
	if side == winner || userID == creatorID {
		return db.DecisionAccepted
	}
	return db.DecisionPending
}
