// Package stats aggregates finished matches into per-player statistics.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/cuescore/pkg/match"
)

// ErrNoMatches is returned when the subject played none of the given matches.
var ErrNoMatches = errors.New("stats: no matches for player")

// PlayerStats summarizes a player's results over a set of matches.
type PlayerStats struct {
	Player               string        `json:"player"`
	Matches              int           `json:"matches"`
	VictoryCount         int           `json:"victoryCount"`
	VictoryPercent       int           `json:"victoryPercent"`
	LongestVictoryStreak int           `json:"longestVictoryStreak"`
	Snooker              *SnookerStats `json:"snooker,omitempty"`
}

// SnookerStats holds the break statistics only snooker records carry.
// Averages are nil when no match provides the data they need.
type SnookerStats struct {
	BestScore           int      `json:"bestScore"`
	BestBreak           int      `json:"bestBreak"`
	AverageBestBreak    *float64 `json:"averageBestBreak"`
	AverageBreak        *float64 `json:"averageBreak"`
	AveragePenaltyCount *float64 `json:"averagePenaltyCount"`
}

// Aggregate computes the statistics of subject over records. Records the
// subject did not play are ignored; the rest are scanned in date order. A
// tie is not a win and ends a victory streak.
func Aggregate(records []match.MatchRecord, subject string, game match.Game) (PlayerStats, error) {
	played := make([]match.MatchRecord, 0, len(records))
	for _, r := range records {
		if r.Involves(subject) {
			played = append(played, r)
		}
	}
	if len(played) == 0 {
		return PlayerStats{}, ErrNoMatches
	}
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].Date.Before(played[j].Date)
	})

	ps := PlayerStats{Player: subject, Matches: len(played)}
	streak := 0
	for _, r := range played {
		own, opp := sides(r, subject)
		if own.Score > opp.Score {
			ps.VictoryCount++
			streak++
			ps.LongestVictoryStreak = max(ps.LongestVictoryStreak, streak)
		} else {
			streak = 0
		}
	}
	ps.VictoryPercent = int(math.Floor(100*float64(ps.VictoryCount)/float64(ps.Matches) + 0.5))

	if game.IsSnooker() {
		ps.Snooker = snooker(played, subject)
	}
	return ps, nil
}

func snooker(played []match.MatchRecord, subject string) *SnookerStats {
	var (
		scores    []float64 // own score where a best break was recorded
		bests     []float64
		breaks    []float64
		penalties []float64
	)
	for _, r := range played {
		own, opp := sides(r, subject)
		if own.BestBreak != nil {
			scores = append(scores, float64(own.Score))
			bests = append(bests, float64(*own.BestBreak))
		}
		if own.PenaltyCount == nil {
			continue
		}
		penalties = append(penalties, float64(*own.PenaltyCount))

		// Matches without a break of the subject's own have no average.
		n := r.BreakCount(subject)
		if n == 0 {
			continue
		}
		fouls := 0
		if opp.PenaltyCount != nil {
			fouls = *opp.PenaltyCount
		}
		breaks = append(breaks, float64(own.Score-match.PenaltyPoints*fouls)/float64(n))
	}

	s := &SnookerStats{
		AverageBestBreak:    mean(bests),
		AverageBreak:        mean(breaks),
		AveragePenaltyCount: mean(penalties),
	}
	if len(bests) > 0 {
		s.BestScore = int(floats.Max(scores))
		s.BestBreak = int(floats.Max(bests))
	}
	return s
}

func sides(r match.MatchRecord, subject string) (own, opp match.PlayerResult) {
	seat, _ := r.SeatOf(subject)
	return r.Side(seat), r.Side(seat.Other())
}

// mean returns the average of xs rounded half up to one decimal, or nil for
// an empty slice.
func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	m := Round1(stat.Mean(xs, nil))
	return &m
}

// Round1 rounds x half up to one decimal place.
func Round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
