package report

import (
	"slices"
	"time"

	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/stats"
)

// Side is one score cell of a match row.
type Side struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
	Loser bool   `json:"loser"`
}

// BestBreakCell is the higher of the two best breaks of a match.
type BestBreakCell struct {
	Value int    `json:"value"`
	Owner string `json:"owner"`
}

// BreakDetail is a break with its pots named by ball colour.
type BreakDetail struct {
	ID    string   `json:"id"`
	Balls []string `json:"balls"`
}

// Row is one match of the report, oriented so that Left is the chosen
// player. A tie marks both sides as losers.
type Row struct {
	Date      time.Time      `json:"date"`
	Left      Side           `json:"left"`
	Right     Side           `json:"right"`
	BestBreak *BestBreakCell `json:"bestBreak,omitempty"`
	Breaks    []BreakDetail  `json:"breaks,omitempty"`
}

// Report is everything the report page shows.
type Report struct {
	Query         Query              `json:"query"`
	Players       []string           `json:"players"`
	Favorite      bool               `json:"favorite"`
	Matches       int                `json:"matches"`
	PlayerStats   *stats.PlayerStats `json:"playerStats,omitempty"`
	OpponentStats *stats.PlayerStats `json:"opponentStats,omitempty"`
	Rows          []Row              `json:"rows"`
}

// Build assembles the report of q over records stored oldest first.
// favorite is the stored favorite view, if any.
func Build(records []match.MatchRecord, q Query, favorite *Query, now time.Time) Report {
	q.normalize()

	recent := slices.Clone(records)
	slices.Reverse(recent)

	r := Report{
		Query:    q,
		Players:  Players(recent),
		Favorite: favorite != nil && *favorite == q,
		Rows:     []Row{},
	}

	filtered := q.Apply(recent, now)
	r.Matches = len(filtered)
	if len(filtered) == 0 {
		return r
	}

	if q.Player != All {
		if ps, err := stats.Aggregate(filtered, q.Player, q.Game); err == nil {
			r.PlayerStats = &ps
		}
		if q.Opponent != All {
			if ps, err := stats.Aggregate(filtered, q.Opponent, q.Game); err == nil {
				r.OpponentStats = &ps
			}
		}
	}

	for _, m := range filtered {
		r.Rows = append(r.Rows, buildRow(m, q))
	}
	return r
}

// Players returns the distinct player names in order of first appearance.
func Players(records []match.MatchRecord) []string {
	seen := make(map[string]bool)
	players := []string{}
	for _, m := range records {
		for _, id := range []string{m.J1.ID, m.J2.ID} {
			if !seen[id] {
				seen[id] = true
				players = append(players, id)
			}
		}
	}
	return players
}

func buildRow(m match.MatchRecord, q Query) Row {
	left, right := m.J1, m.J2
	if q.Player != All && m.J2.ID == q.Player {
		left, right = m.J2, m.J1
	}

	row := Row{
		Date:  m.Date,
		Left:  Side{ID: left.ID, Score: left.Score, Loser: left.Score <= right.Score},
		Right: Side{ID: right.ID, Score: right.Score, Loser: left.Score >= right.Score},
	}
	if !q.Game.IsSnooker() {
		return row
	}

	if left.BestBreak != nil || right.BestBreak != nil {
		l, r := deref(left.BestBreak), deref(right.BestBreak)
		if l > r {
			row.BestBreak = &BestBreakCell{Value: l, Owner: left.ID}
		} else {
			row.BestBreak = &BestBreakCell{Value: r, Owner: right.ID}
		}
	}
	for _, b := range m.Breaks {
		d := BreakDetail{ID: b.ID, Balls: make([]string, len(b.Pots))}
		for i, p := range b.Pots {
			d.Balls[i] = p.BallName()
		}
		row.Breaks = append(row.Breaks, d)
	}
	return row
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
