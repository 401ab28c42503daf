package api

import (
	"time"

	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/report"
)

// StartRequest is the request body for starting a match.
type StartRequest struct {
	Game  match.Game `json:"game"`         // "8ball", "9ball" or "snooker"
	First match.Seat `json:"first"`        // Seat breaking off (default J1)
	J1    string     `json:"j1,omitempty"` // Name for seat J1 (default stored name)
	J2    string     `json:"j2,omitempty"` // Name for seat J2 (default stored name)
}

// PointsRequest is the request body for scoring.
type PointsRequest struct {
	Points int         `json:"points"`         // Ball value or racks won
	Seat   *match.Seat `json:"seat,omitempty"` // Seat credited in 8/9-ball; ignored in snooker
}

// MatchResponse describes the live match.
type MatchResponse struct {
	ID      string     `json:"id"`      // Session ID
	Players [2]string  `json:"players"` // Names in seat order
	Started time.Time  `json:"started"` // When the match began
	View    match.View `json:"view"`    // Current scoreboard
}

// UndoResponse is the response for an undo.
type UndoResponse struct {
	Undone bool       `json:"undone"` // Whether an event was reversed
	View   match.View `json:"view"`
}

// SaveResponse is the response for saving a match.
type SaveResponse struct {
	Record match.MatchRecord `json:"record"` // The stored record
	Report string            `json:"report"` // Query string of the report to show next
}

// PlayerNameRequest is the request body for naming a seat.
type PlayerNameRequest struct {
	Name string `json:"name"`
}

// PlayerNameResponse is the name of a seat.
type PlayerNameResponse struct {
	Seat match.Seat `json:"seat"`
	Name string     `json:"name"`
}

// FavoriteResponse is the stored favorite report.
type FavoriteResponse struct {
	Favorite *report.Query `json:"favorite"` // Null when none is set
}

// RandomResponse is a randomly drawn game.
type RandomResponse struct {
	Game match.Game `json:"game"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string     `json:"status"`         // "ok" or "error"
	Version string     `json:"version"`        // Server version
	Ready   bool       `json:"ready"`          // Whether storage is configured
	Live    bool       `json:"live"`           // Whether a match is in progress
	Pool    *PoolStats `json:"pool,omitempty"` // Worker pool statistics
}
