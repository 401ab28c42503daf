package match

import (
	"encoding/json"
	"fmt"
	"time"
)

// Pot is one entry of a break's potted sequence: a ball value or a foul.
type Pot struct {
	Value   int  // Points scored; zero for a foul
	Penalty bool // True for a foul
}

// PenaltyPot is the potted-sequence token of a foul.
var PenaltyPot = Pot{Penalty: true}

// MarshalJSON encodes a pot as its value or as "P" for a foul.
func (p Pot) MarshalJSON() ([]byte, error) {
	if p.Penalty {
		return []byte(`"P"`), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON decodes a ball value or the "P" foul token.
func (p *Pot) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "P" {
			return fmt.Errorf("unknown pot token %q", s)
		}
		*p = PenaltyPot
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decoding pot: %w", err)
	}
	*p = Pot{Value: v}
	return nil
}

// BallName returns the snooker ball matching the pot value, or "penalty".
func (p Pot) BallName() string {
	if p.Penalty {
		return "penalty"
	}
	switch p.Value {
	case 1:
		return "red"
	case 2:
		return "yellow"
	case 3:
		return "green"
	case 4:
		return "brown"
	case 5:
		return "blue"
	case 6:
		return "pink"
	case 7:
		return "black"
	}
	return fmt.Sprintf("%d", p.Value)
}

// BreakRecord is one visit to the table by a player.
type BreakRecord struct {
	ID   string `json:"id"`    // Player name
	Pots []Pot  `json:"break"` // Potted sequence in order
}

// Total returns the points scored in the break.
func (b BreakRecord) Total() int {
	total := 0
	for _, p := range b.Pots {
		total += p.Value
	}
	return total
}

// PlayerResult is one side of a finished match. BestBreak and PenaltyCount
// are nil when the record carries no snooker data for the player.
type PlayerResult struct {
	ID           string `json:"id"`
	Score        int    `json:"score"`
	BestBreak    *int   `json:"bestBreak,omitempty"`
	PenaltyCount *int   `json:"penaltyCount,omitempty"`
}

// MatchRecord is the persisted result of a match.
type MatchRecord struct {
	Date   time.Time     `json:"date"`
	J1     PlayerResult  `json:"j1"`
	J2     PlayerResult  `json:"j2"`
	Breaks []BreakRecord `json:"breaks,omitempty"`
}

// Side returns the result of a seat.
func (m MatchRecord) Side(seat Seat) PlayerResult {
	if seat == J2 {
		return m.J2
	}
	return m.J1
}

// SeatOf returns the seat taken by player in the match.
func (m MatchRecord) SeatOf(player string) (Seat, bool) {
	switch player {
	case m.J1.ID:
		return J1, true
	case m.J2.ID:
		return J2, true
	}
	return J1, false
}

// Involves reports whether player took part in the match.
func (m MatchRecord) Involves(player string) bool {
	_, ok := m.SeatOf(player)
	return ok
}

// BreakCount returns the number of breaks played by player.
func (m MatchRecord) BreakCount(player string) int {
	n := 0
	for _, b := range m.Breaks {
		if b.ID == player {
			n++
		}
	}
	return n
}
