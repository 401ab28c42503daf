package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/yourusername/cuescore/internal/store"
	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/report"
)

// errNoMatch is returned when a scoring request arrives with no match live.
var errNoMatch = errors.New("no match in progress")

// Handlers holds the HTTP handlers, the match history and the live match.
type Handlers struct {
	history *store.History
	version string
	pool    *WorkerPool
	hub     *Hub
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	session *Session
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(history *store.History, version string, logger *slog.Logger) *Handlers {
	return NewHandlersWithPool(history, version, nil, logger)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(history *store.History, version string, pool *WorkerPool, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	hub := NewHub(logger)
	metrics := NewMetrics(hub.Subscribers)
	hub.dropped = metrics.droppedFrames.Inc
	return &Handlers{
		history: history,
		version: version,
		pool:    pool,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Hub returns the live scoreboard hub.
func (h *Handlers) Hub() *Hub {
	return h.hub
}

// Metrics returns the Prometheus collectors.
func (h *Handlers) Metrics() *Metrics {
	return h.metrics
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// writeMatchError maps a scoreboard error to a response.
func writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoMatch):
		writeError(w, http.StatusNotFound, err.Error(), "NO_MATCH")
	case errors.Is(err, match.ErrInvalidPoints):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_POINTS")
	case errors.Is(err, match.ErrUnknownSeat):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_SEAT")
	case errors.Is(err, match.ErrSnookerOnly), errors.Is(err, match.ErrPoolOnly):
		writeError(w, http.StatusConflict, err.Error(), "WRONG_GAME")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL")
	}
}

// current returns the live session, if any.
func (h *Handlers) current() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// acquireFast takes a fast worker slot when a pool is configured. The
// returned function releases it.
func (h *Handlers) acquireFast(ctx context.Context) (func(), error) {
	if h.pool == nil {
		return func() {}, nil
	}
	if err := h.pool.AcquireFast(ctx); err != nil {
		return nil, err
	}
	return h.pool.ReleaseFast, nil
}

func (h *Handlers) acquireSlow(ctx context.Context) (func(), error) {
	if h.pool == nil {
		return func() {}, nil
	}
	if err := h.pool.AcquireSlow(ctx); err != nil {
		return nil, err
	}
	return h.pool.ReleaseSlow, nil
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.history != nil,
		Live:    h.current() != nil,
	}

	// Include pool stats if available
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// StartMatch handles POST /api/match
func (h *Handlers) StartMatch(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}
	if req.Game == "" {
		req.Game = match.Snooker
	}
	if _, err := match.ParseGame(string(req.Game)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_GAME")
		return
	}

	ids, err := h.resolveNames(r.Context(), [2]string{req.J1, req.J2})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
		return
	}

	s := h.Start(req.Game, req.First, ids)
	writeJSON(w, http.StatusCreated, s.Response())
}

// Start replaces the live match with a new one and renders it.
func (h *Handlers) Start(game match.Game, first match.Seat, ids [2]string) *Session {
	s := NewSession(game, first, ids, h.hub)

	h.mu.Lock()
	h.session = s
	h.mu.Unlock()

	h.hub.Render(s.Response().View)
	h.logger.Info("match started", "session", s.ID(), "game", game, "j1", ids[match.J1], "j2", ids[match.J2])
	return s
}

// resolveNames stores the names given and fills in the stored ones.
func (h *Handlers) resolveNames(ctx context.Context, given [2]string) ([2]string, error) {
	ids := given
	for _, seat := range []match.Seat{match.J1, match.J2} {
		if h.history == nil {
			if ids[seat] == "" {
				ids[seat] = seat.String()
			}
			continue
		}
		if ids[seat] != "" {
			if err := h.history.SetPlayerName(ctx, seat, ids[seat]); err != nil {
				return ids, err
			}
			continue
		}
		name, err := h.history.PlayerName(ctx, seat)
		if err != nil {
			return ids, err
		}
		ids[seat] = name
	}
	return ids, nil
}

// GetMatch handles GET /api/match
func (h *Handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	s := h.current()
	if s == nil {
		writeMatchError(w, errNoMatch)
		return
	}
	writeJSON(w, http.StatusOK, s.Response())
}

// Apply runs one scoreboard action on the live match and counts it.
func (h *Handlers) Apply(action string, fn func(b *match.Scoreboard) error) (match.View, error) {
	s := h.current()
	if s == nil {
		return match.View{}, errNoMatch
	}
	var view match.View
	err := s.Do(func(b *match.Scoreboard) error {
		if err := fn(b); err != nil {
			return err
		}
		view = b.View()
		return nil
	})
	if err != nil {
		return view, err
	}
	h.metrics.observeAction(action)
	return view, nil
}

// scorePoints applies a points request to the board.
func scorePoints(req PointsRequest) func(b *match.Scoreboard) error {
	return func(b *match.Scoreboard) error {
		if b.Game().IsSnooker() {
			return b.RecordPoints(req.Points)
		}
		if req.Seat == nil {
			return fmt.Errorf("%w: seat is required in %s", match.ErrUnknownSeat, b.Game())
		}
		return b.RecordPointsFor(*req.Seat, req.Points)
	}
}

// Points handles POST /api/match/points
func (h *Handlers) Points(w http.ResponseWriter, r *http.Request) {
	release, err := h.acquireFast(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return
	}
	defer release()

	var req PointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}

	view, err := h.Apply("points", scorePoints(req))
	if err != nil {
		writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Penalty handles POST /api/match/penalty
func (h *Handlers) Penalty(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "penalty", (*match.Scoreboard).RecordPenalty)
}

// Toggle handles POST /api/match/toggle
func (h *Handlers) Toggle(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, "toggle", (*match.Scoreboard).ToggleTurn)
}

func (h *Handlers) simpleAction(w http.ResponseWriter, r *http.Request, action string, fn func(*match.Scoreboard) error) {
	release, err := h.acquireFast(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return
	}
	defer release()

	view, err := h.Apply(action, fn)
	if err != nil {
		writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Undo handles POST /api/match/undo
func (h *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	release, err := h.acquireFast(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return
	}
	defer release()

	var undone bool
	view, err := h.Apply("undo", func(b *match.Scoreboard) error {
		undone = b.Undo()
		return nil
	})
	if err != nil {
		writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UndoResponse{Undone: undone, View: view})
}

// Save finishes the live match, appends it to history and clears it.
func (h *Handlers) Save(ctx context.Context) (SaveResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.session
	if s == nil {
		return SaveResponse{}, errNoMatch
	}
	var rec match.MatchRecord
	var game match.Game
	s.Do(func(b *match.Scoreboard) error {
		game = b.Game()
		rec = b.Finish(s.Players(), h.now().UTC())
		return nil
	})

	if h.history != nil {
		if err := h.history.Append(ctx, game, rec); err != nil {
			return SaveResponse{}, err
		}
	}
	h.session = nil
	h.metrics.observeSave(string(game))
	h.logger.Info("match finished", "session", s.ID(), "game", game,
		"score", fmt.Sprintf("%d-%d", rec.J1.Score, rec.J2.Score))

	return SaveResponse{
		Record: rec,
		Report: report.SaveQuery(game, s.Players()).Encode(),
	}, nil
}

// SaveMatch handles POST /api/match/save
func (h *Handlers) SaveMatch(w http.ResponseWriter, r *http.Request) {
	resp, err := h.Save(r.Context())
	if errors.Is(err, errNoMatch) {
		writeMatchError(w, err)
		return
	}
	if err != nil {
		h.logger.Error("saving match", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save match", "STORAGE")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// buildReport resolves the report query of r, applying the favorite view
// when no filter is given, and builds the report.
func (h *Handlers) buildReport(r *http.Request) (report.Report, error) {
	ctx := r.Context()
	q, given, err := report.ParseQuery(r.URL.Query())
	if err != nil {
		return report.Report{}, err
	}
	var fav *report.Query
	var records []match.MatchRecord
	if h.history != nil {
		if fav, err = h.history.Favorite(ctx); err != nil {
			return report.Report{}, err
		}
		if !given && fav != nil {
			q = *fav
		}
		if records, err = h.history.Load(ctx, q.Game); err != nil {
			return report.Report{}, err
		}
	}
	return report.Build(records, q, fav, h.now()), nil
}

// Report handles GET /api/report
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	release, err := h.acquireSlow(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return
	}
	defer release()

	rep, err := h.buildReport(r)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ReportXLSX handles GET /api/report.xlsx
func (h *Handlers) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	release, err := h.acquireSlow(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return
	}
	defer release()

	rep, err := h.buildReport(r)
	if err != nil {
		writeReportError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep); err != nil {
		h.logger.Error("exporting report", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed", "EXPORT")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="cuescore-%s.xlsx"`, rep.Query.Game))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func writeReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, match.ErrUnknownGame) || errors.Is(err, report.ErrUnknownPeriod) {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_QUERY")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
}

// GetFavorite handles GET /api/favorite
func (h *Handlers) GetFavorite(w http.ResponseWriter, r *http.Request) {
	var resp FavoriteResponse
	if h.history != nil {
		fav, err := h.history.Favorite(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
			return
		}
		resp.Favorite = fav
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutFavorite handles PUT /api/favorite
func (h *Handlers) PutFavorite(w http.ResponseWriter, r *http.Request) {
	var req report.Query
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}
	q, _, err := report.ParseQuery(req.Values())
	if err != nil {
		writeReportError(w, err)
		return
	}
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured", "STORAGE")
		return
	}
	if err := h.history.SetFavorite(r.Context(), q); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
		return
	}
	writeJSON(w, http.StatusOK, FavoriteResponse{Favorite: &q})
}

// GetPlayer handles GET /api/players/{seat}
func (h *Handlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	seat, err := match.ParseSeat(r.PathValue("seat"))
	if err != nil {
		writeMatchError(w, err)
		return
	}
	name := seat.String()
	if h.history != nil {
		if name, err = h.history.PlayerName(r.Context(), seat); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
			return
		}
	}
	writeJSON(w, http.StatusOK, PlayerNameResponse{Seat: seat, Name: name})
}

// PutPlayer handles PUT /api/players/{seat}
func (h *Handlers) PutPlayer(w http.ResponseWriter, r *http.Request) {
	seat, err := match.ParseSeat(r.PathValue("seat"))
	if err != nil {
		writeMatchError(w, err)
		return
	}
	var req PlayerNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured", "STORAGE")
		return
	}
	if err := h.history.SetPlayerName(r.Context(), seat, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
		return
	}
	name, err := h.history.PlayerName(r.Context(), seat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "STORAGE")
		return
	}
	writeJSON(w, http.StatusOK, PlayerNameResponse{Seat: seat, Name: name})
}

// RandomGame draws one of the supported games.
func RandomGame() match.Game {
	games := match.Games()
	return games[rand.IntN(len(games))]
}

// Random handles GET /api/random
func (h *Handlers) Random(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RandomResponse{Game: RandomGame()})
}
