package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/report"
)

// Storage keys.
const (
	resultsPrefix = "results_"
	favoriteKey   = "favorite"
)

// ResultsKey returns the key holding the match list of game.
func ResultsKey(game match.Game) string {
	return resultsPrefix + string(game)
}

// History reads and writes match lists, the favorite report and seat names.
type History struct {
	kv        KV
	legacyIDs [2]string
	logger    *slog.Logger
}

// NewHistory wraps kv. legacyIDs name the seats of legacy match tuples.
func NewHistory(kv KV, legacyIDs [2]string, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{kv: kv, legacyIDs: legacyIDs, logger: logger}
}

// Load returns the matches of game, oldest first. A missing list is empty;
// a list that cannot be decoded is logged and treated as empty.
func (h *History) Load(ctx context.Context, game match.Game) ([]match.MatchRecord, error) {
	data, ok, err := h.kv.Get(ctx, ResultsKey(game))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []match.MatchRecord{}, nil
	}
	records, err := match.DecodeHistory(data, game, h.legacyIDs)
	if err != nil {
		h.logger.Warn("ignoring malformed match list", "game", game, "error", err)
		return []match.MatchRecord{}, nil
	}
	return records, nil
}

// Append adds rec to the match list of game. Legacy lists are written back
// upconverted. A list that cannot be decoded is left untouched and an error
// returned.
func (h *History) Append(ctx context.Context, game match.Game, rec match.MatchRecord) error {
	key := ResultsKey(game)
	data, ok, err := h.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	records := []match.MatchRecord{}
	if ok {
		records, err = match.DecodeHistory(data, game, h.legacyIDs)
		if err != nil {
			return fmt.Errorf("refusing to overwrite %s: %w", key, err)
		}
	}

	records = append(records, rec)
	out, err := match.EncodeHistory(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := h.kv.Put(ctx, key, out); err != nil {
		return err
	}
	h.logger.Info("match saved", "game", game, "j1", rec.J1.ID, "j2", rec.J2.ID, "matches", len(records))
	return nil
}

// Favorite returns the stored favorite report, or nil when none is set.
func (h *History) Favorite(ctx context.Context) (*report.Query, error) {
	data, ok, err := h.kv.Get(ctx, favoriteKey)
	if err != nil || !ok {
		return nil, err
	}
	var q report.Query
	if err := json.Unmarshal(data, &q); err != nil {
		h.logger.Warn("ignoring malformed favorite", "error", err)
		return nil, nil
	}
	return &q, nil
}

// SetFavorite stores q as the favorite report.
func (h *History) SetFavorite(ctx context.Context, q report.Query) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode favorite: %w", err)
	}
	return h.kv.Put(ctx, favoriteKey, data)
}

// PlayerName returns the name of the player at seat, defaulting to the seat
// label.
func (h *History) PlayerName(ctx context.Context, seat match.Seat) (string, error) {
	data, ok, err := h.kv.Get(ctx, seat.String())
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if !ok || name == "" {
		return seat.String(), nil
	}
	return name, nil
}

// PlayerNames returns both seat names in seat order.
func (h *History) PlayerNames(ctx context.Context) ([2]string, error) {
	var ids [2]string
	for _, seat := range []match.Seat{match.J1, match.J2} {
		name, err := h.PlayerName(ctx, seat)
		if err != nil {
			return ids, err
		}
		ids[seat] = name
	}
	return ids, nil
}

// SetPlayerName stores the name of the player at seat.
func (h *History) SetPlayerName(ctx context.Context, seat match.Seat, name string) error {
	return h.kv.Put(ctx, seat.String(), []byte(strings.TrimSpace(name)))
}
