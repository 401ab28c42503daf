// Package report filters match history and builds the report view: player
// statistics, match rows and break details.
package report

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/yourusername/cuescore/pkg/match"
)

// All disables a player, opponent or period filter.
const All = "ALL"

// ErrUnknownPeriod is returned for a period outside ALL, WEEK, MONTH, YEAR.
var ErrUnknownPeriod = errors.New("unknown period")

// Period is a rolling window ending now.
type Period string

const (
	PeriodAll   Period = All
	PeriodWeek  Period = "WEEK"
	PeriodMonth Period = "MONTH"
	PeriodYear  Period = "YEAR"
)

const day = 24 * time.Hour

// Periods returns the periods in menu order.
func Periods() []Period {
	return []Period{PeriodAll, PeriodWeek, PeriodMonth, PeriodYear}
}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Window returns the length of the period, or zero for PeriodAll.
func (p Period) Window() time.Duration {
	switch p {
	case PeriodWeek:
		return 7 * day
	case PeriodMonth:
		return 30 * day
	case PeriodYear:
		return 365 * day
	}
	return 0
}

// Contains reports whether date falls strictly inside the window ending at now.
func (p Period) Contains(date, now time.Time) bool {
	w := p.Window()
	if w == 0 {
		return true
	}
	return now.Sub(date) < w
}

// Query selects which matches a report covers. Its JSON form is also the
// stored favorite view.
type Query struct {
	Game     match.Game `json:"game"`
	Period   Period     `json:"period"`
	Player   string     `json:"player"`
	Opponent string     `json:"opponent"`
}

// DefaultQuery shows every snooker match.
func DefaultQuery() Query {
	return Query{Game: match.Snooker, Period: PeriodAll, Player: All, Opponent: All}
}

// SetGame switches game and clears the player filters, whose names belong to
// the previous game's history.
func (q *Query) SetGame(g match.Game) {
	q.Game = g
	q.Player = All
	q.Opponent = All
}

// SetPeriod changes the period.
func (q *Query) SetPeriod(p Period) {
	q.Period = p
}

// SetPlayer changes the player and clears the opponent.
func (q *Query) SetPlayer(player string) {
	q.Player = player
	q.Opponent = All
}

// SetOpponent changes the opponent. An opponent equal to the player is
// ignored and SetOpponent returns false.
func (q *Query) SetOpponent(opponent string) bool {
	if opponent == q.Player {
		return false
	}
	q.Opponent = opponent
	return true
}

// normalize drops an opponent filter that has no concrete player.
func (q *Query) normalize() {
	if q.Player == All {
		q.Opponent = All
	}
}

// ParseQuery reads game, period, player and opponent from v, applying them
// in that order on top of DefaultQuery. The boolean reports whether any of
// the parameters was present.
func ParseQuery(v url.Values) (Query, bool, error) {
	q := DefaultQuery()
	given := false

	if s := v.Get("game"); s != "" {
		g, err := match.ParseGame(s)
		if err != nil {
			return q, true, err
		}
		q.SetGame(g)
		given = true
	}
	if s := v.Get("period"); s != "" {
		p, err := ParsePeriod(s)
		if err != nil {
			return q, true, err
		}
		q.SetPeriod(p)
		given = true
	}
	if s := v.Get("player"); s != "" {
		q.SetPlayer(s)
		given = true
	}
	if s := v.Get("opponent"); s != "" {
		q.SetOpponent(s)
		given = true
	}
	q.normalize()
	return q, given, nil
}

// Values returns the query as URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("game", string(q.Game))
	v.Set("period", string(q.Period))
	v.Set("player", q.Player)
	v.Set("opponent", q.Opponent)
	return v
}

// Encode returns the query as a URL query string.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Apply returns the records matching the period and player filters, in
// their original order.
func (q Query) Apply(records []match.MatchRecord, now time.Time) []match.MatchRecord {
	out := make([]match.MatchRecord, 0, len(records))
	for _, r := range records {
		if !q.Period.Contains(r.Date, now) {
			continue
		}
		if q.Player != All && !r.Involves(q.Player) {
			continue
		}
		if q.Player != All && q.Opponent != All && !r.Involves(q.Opponent) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SaveQuery is the report shown after saving a match between two players.
func SaveQuery(game match.Game, ids [2]string) Query {
	q := DefaultQuery()
	q.SetGame(game)
	q.SetPlayer(ids[match.J1])
	q.SetOpponent(ids[match.J2])
	return q
}
