// Package rating holds the pure rating rules: fixed-delta updates, tiers and win rate.
// Storage of the aggregates lives in the repository package.
package rating

import "math"

const (
	// DefaultRating is assigned to a player's stats row when it is first created.
	DefaultRating = 1000
	// MinRating is the floor applied after every loss.
	MinRating = 1

	WinDelta  = 25
	LossDelta = 20
)

// Tier is a coarse rating bracket used for display.
type Tier string

const (
	TierMaster   Tier = "MASTER"
	TierDiamond  Tier = "DIAMOND"
	TierPlatinum Tier = "PLATINUM"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
	TierBronze   Tier = "BRONZE"
)

// thresholds are ordered highest tier first.
var thresholds = []struct {
	min  int
	tier Tier
}{
	{2100, TierMaster},
	{1800, TierDiamond},
	{1600, TierPlatinum},
	{1400, TierGold},
	{1200, TierSilver},
}

// TierFor maps a rating onto its tier.
func TierFor(r int) Tier {
	for _, t := range thresholds {
		if r >= t.min {
			return t.tier
		}
	}
	return TierBronze
}

// Record is the mutable part of a player's aggregate.
type Record struct {
	Wins   int
	Losses int
	Rating int
}

// Apply returns the record after one match outcome. Each call stands for one real
// match, so repeating it keeps changing the record.
func Apply(r Record, won bool) Record {
	if r.Rating < MinRating {
		r.Rating = DefaultRating
	}
	if won {
		r.Wins++
		r.Rating += WinDelta
		return r
	}
	r.Losses++
	r.Rating -= LossDelta
	if r.Rating < MinRating {
		r.Rating = MinRating
	}
	return r
}

// MatchesPlayed is wins plus losses, ignoring negative counters.
func MatchesPlayed(wins, losses int) int {
	return max(wins, 0) + max(losses, 0)
}

// WinRate returns the rounded (half-up) win percentage, 0 when nothing was played.
func WinRate(wins, losses int) int {
	played := MatchesPlayed(wins, losses)
	if played == 0 {
		return 0
	}
	return int(math.Floor(float64(max(wins, 0))*100/float64(played) + 0.5))
}
