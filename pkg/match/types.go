// Package match provides live scorekeeping for cue-sports matches.
// It holds the event log of an in-progress match, the snooker turn/break
// state machine with cascading undo, and the reconstruction of per-turn
// breaks into a persisted match record.
package match

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PenaltyPoints is the fixed award to the non-offending player after a foul.
const PenaltyPoints = 4

var (
	// ErrInvalidPoints is returned when a scoring increment is not positive.
	ErrInvalidPoints = errors.New("points must be positive")

	// ErrSnookerOnly is returned for break bookkeeping on a pool table.
	ErrSnookerOnly = errors.New("operation is only available in snooker")

	// ErrPoolOnly is returned when a seat is credited directly in snooker.
	ErrPoolOnly = errors.New("operation is only available in 8-ball and 9-ball")

	// ErrUnknownGame is returned when parsing an unsupported game type.
	ErrUnknownGame = errors.New("unknown game")

	// ErrUnknownSeat is returned when parsing a seat label other than J1 or J2.
	ErrUnknownSeat = errors.New("unknown seat")
)

// Game identifies a cue-sports discipline.
type Game string

const (
	EightBall Game = "8ball"
	NineBall  Game = "9ball"
	Snooker   Game = "snooker"
)

// Games returns all supported games in display order.
func Games() []Game {
	return []Game{EightBall, NineBall, Snooker}
}

// ParseGame converts a game identifier such as "snooker" into a Game.
func ParseGame(s string) (Game, error) {
	for _, g := range Games() {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

// IsSnooker reports whether the game tracks breaks and penalties.
func (g Game) IsSnooker() bool {
	return g == Snooker
}

// Seat is one of the two player positions at the table.
type Seat int

const (
	J1 Seat = iota // First seat
	J2             // Second seat
)

// String returns the seat label used in storage and on screen.
func (s Seat) String() string {
	if s == J2 {
		return "J2"
	}
	return "J1"
}

// Other returns the opposing seat.
func (s Seat) Other() Seat {
	return 1 - s
}

// ParseSeat converts "J1" or "J2" into a Seat.
func ParseSeat(s string) (Seat, error) {
	switch s {
	case "J1":
		return J1, nil
	case "J2":
		return J2, nil
	}
	return J1, fmt.Errorf("%w: %q", ErrUnknownSeat, s)
}

// MarshalText encodes the seat as its label.
func (s Seat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a seat label.
func (s *Seat) UnmarshalText(b []byte) error {
	seat, err := ParseSeat(string(b))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

// EventKind represents the type of a logged scoring event.
type EventKind int

const (
	EventPoints  EventKind = iota // Points scored by the break owner
	EventPenalty                  // Foul by the break owner
	EventTurn                     // Control passes to a player
)

// String returns the wire name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventPenalty:
		return "penalty"
	case EventTurn:
		return "turn"
	}
	return "points"
}

// Event is a single entry of the match event log.
type Event struct {
	Kind   EventKind // Type of event
	Seat   Seat      // Break owner, or the player receiving control for EventTurn
	Points int       // Points scored (EventPoints only)
}

// Points returns a scoring event for seat.
func Points(seat Seat, n int) Event {
	return Event{Kind: EventPoints, Seat: seat, Points: n}
}

// Penalty returns a foul committed by seat.
func Penalty(seat Seat) Event {
	return Event{Kind: EventPenalty, Seat: seat}
}

// TurnMarker returns the event passing control to seat.
func TurnMarker(seat Seat) Event {
	return Event{Kind: EventTurn, Seat: seat}
}

// IsTurn reports whether the event is a turn marker.
func (e Event) IsTurn() bool {
	return e.Kind == EventTurn
}

type eventJSON struct {
	Kind   string `json:"kind"`
	Seat   Seat   `json:"seat"`
	Points int    `json:"points,omitempty"`
}

// MarshalJSON encodes the event as {"kind","seat","points"}.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{Kind: e.Kind.String(), Seat: e.Seat, Points: e.Points})
}

// UnmarshalJSON decodes an event written by MarshalJSON.
func (e *Event) UnmarshalJSON(b []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case "points":
		*e = Points(raw.Seat, raw.Points)
	case "penalty":
		*e = Penalty(raw.Seat)
	case "turn":
		*e = TurnMarker(raw.Seat)
	default:
		return fmt.Errorf("unknown event kind %q", raw.Kind)
	}
	return nil
}

// Cue is a short audio feedback played on scoring events.
type Cue int

const (
	CuePoint   Cue = iota // Points scored or action undone
	CuePenalty            // Foul
)

// String returns the cue name.
func (c Cue) String() string {
	if c == CuePenalty {
		return "penalty"
	}
	return "point"
}

// View is the scoreboard snapshot handed to a Presenter.
type View struct {
	Game       Game   `json:"game"`
	Scores     [2]int `json:"scores"`
	Active     Seat   `json:"active"`
	BreakScore int    `json:"break_score"`
	Events     int    `json:"events"`
	CanUndo    bool   `json:"can_undo"`
}

// Presenter renders scoreboard state and plays feedback. Implementations
// are called synchronously from the scoreboard operations.
type Presenter interface {
	Render(v View)
	PlayCue(c Cue)
	// ResetRack makes every ball of a pool rack visible again.
	ResetRack()
}

// NopPresenter discards all output.
type NopPresenter struct{}

func (NopPresenter) Render(View) {}
func (NopPresenter) PlayCue(Cue) {}
func (NopPresenter) ResetRack()  {}
