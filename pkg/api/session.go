package api

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/cuescore/pkg/match"
)

// Frame types pushed to live subscribers.
const (
	FrameView = "view"
	FrameCue  = "cue"
	FrameRack = "rack"
)

// Frame is one update of the live scoreboard.
type Frame struct {
	Type string      `json:"type"`           // "view", "cue" or "rack"
	View *match.View `json:"view,omitempty"` // Set for view frames
	Cue  string      `json:"cue,omitempty"`  // "point" or "penalty" for cue frames
}

// Hub fans scoreboard updates out to subscribers. It implements
// match.Presenter; a subscriber that cannot keep up misses frames.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan Frame]struct{}
	logger  *slog.Logger
	dropped func()
}

// NewHub creates a hub with no subscribers.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{subs: make(map[chan Frame]struct{}), logger: logger}
}

// Subscribe registers a new subscriber. The returned function unregisters
// it and closes the channel.
func (h *Hub) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 64)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) publish(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- f:
		default:
			h.logger.Debug("dropping frame for slow subscriber", "type", f.Type)
			if h.dropped != nil {
				h.dropped()
			}
		}
	}
}

// Render implements match.Presenter.
func (h *Hub) Render(v match.View) { h.publish(Frame{Type: FrameView, View: &v}) }

// PlayCue implements match.Presenter.
func (h *Hub) PlayCue(c match.Cue) { h.publish(Frame{Type: FrameCue, Cue: c.String()}) }

// ResetRack implements match.Presenter.
func (h *Hub) ResetRack() { h.publish(Frame{Type: FrameRack}) }

// Session is a match in progress. All access to its scoreboard goes through
// Do, which serializes concurrent requests.
type Session struct {
	mu      sync.Mutex
	id      string
	ids     [2]string
	started time.Time
	board   *match.Scoreboard
}

// NewSession starts a match between ids, rendering through p.
func NewSession(game match.Game, first match.Seat, ids [2]string, p match.Presenter) *Session {
	return &Session{
		id:      uuid.NewString(),
		ids:     ids,
		started: time.Now().UTC(),
		board:   match.NewScoreboard(game, first, p),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Players returns the player names in seat order.
func (s *Session) Players() [2]string { return s.ids }

// Do runs fn with exclusive access to the scoreboard.
func (s *Session) Do(fn func(b *match.Scoreboard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.board)
}

// Response snapshots the session.
func (s *Session) Response() MatchResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MatchResponse{ID: s.id, Players: s.ids, Started: s.started, View: s.board.View()}
}
