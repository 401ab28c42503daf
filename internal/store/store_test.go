package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/report"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stores returns one of each KV implementation.
func stores(t *testing.T) map[string]KV {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "cuescore.db"))
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]KV{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	for name, kv := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Errorf("Get(missing) = %v, %v, want not found", ok, err)
			}
			if err := kv.Put(ctx, "k", []byte("one")); err != nil {
				t.Fatalf("Put error: %v", err)
			}
			if err := kv.Put(ctx, "k", []byte("two")); err != nil {
				t.Fatalf("Put error: %v", err)
			}
			v, ok, err := kv.Get(ctx, "k")
			if err != nil || !ok || string(v) != "two" {
				t.Errorf("Get(k) = %q, %v, %v, want two", v, ok, err)
			}
		})
	}
}

func TestSQLitePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cuescore.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	if err := db.Put(ctx, "J1", []byte("Ann")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	v, ok, err := db.Get(ctx, "J1")
	if err != nil || !ok || string(v) != "Ann" {
		t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
	}
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Error("OpenSQLite(\"  \") error = nil, want error")
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	m.Close()
	if err := m.Put(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after Close error = %v, want %v", err, ErrClosed)
	}
}

func TestHistoryAppendLoad(t *testing.T) {
	ctx := context.Background()
	for name, kv := range stores(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHistory(kv, match.DefaultLegacyPlayers, testLogger())

			empty, err := h.Load(ctx, match.Snooker)
			if err != nil || len(empty) != 0 {
				t.Fatalf("Load on empty store = %v, %v", empty, err)
			}

			s := match.NewScoreboard(match.Snooker, match.J1, nil)
			s.RecordPoints(5)
			s.RecordPenalty()
			first := s.Finish([2]string{"Ann", "Bob"}, time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC))
			second := match.MatchRecord{
				Date: time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC),
				J1:   match.PlayerResult{ID: "Bob", Score: 3},
				J2:   match.PlayerResult{ID: "Ann", Score: 1},
			}
			for _, rec := range []match.MatchRecord{first, second} {
				if err := h.Append(ctx, match.Snooker, rec); err != nil {
					t.Fatalf("Append error: %v", err)
				}
			}

			got, err := h.Load(ctx, match.Snooker)
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if diff := cmp.Diff([]match.MatchRecord{first, second}, got); diff != "" {
				t.Errorf("Load mismatch (-want +got):\n%s", diff)
			}

			other, err := h.Load(ctx, match.EightBall)
			if err != nil || len(other) != 0 {
				t.Errorf("Load(8ball) = %v, %v, want empty", other, err)
			}
		})
	}
}

func TestHistoryLegacyUpconversion(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	legacy := `[["2023-04-02T19:12:44Z", 45, 61, "Ri", 32]]`
	kv.Put(ctx, ResultsKey(match.Snooker), []byte(legacy))
	h := NewHistory(kv, match.DefaultLegacyPlayers, testLogger())

	got, err := h.Load(ctx, match.Snooker)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 1 || got[0].J2.ID != "Ri" || got[0].J2.BestBreak == nil || *got[0].J2.BestBreak != 32 {
		t.Fatalf("Load = %+v, want upconverted record", got)
	}

	// Reading leaves the legacy value in place.
	raw, _, _ := kv.Get(ctx, ResultsKey(match.Snooker))
	if string(raw) != legacy {
		t.Errorf("stored value rewritten on read: %s", raw)
	}

	rec := match.MatchRecord{
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		J1:   match.PlayerResult{ID: "Sa", Score: 1},
		J2:   match.PlayerResult{ID: "Ri", Score: 0},
	}
	if err := h.Append(ctx, match.Snooker, rec); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	raw, _, _ = kv.Get(ctx, ResultsKey(match.Snooker))
	if raw[1] == '[' {
		t.Errorf("stored value still legacy after Append: %s", raw)
	}
	got, _ = h.Load(ctx, match.Snooker)
	if len(got) != 2 {
		t.Errorf("Load after Append = %d records, want 2", len(got))
	}
}

func TestHistoryCorruptList(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	kv.Put(ctx, ResultsKey(match.NineBall), []byte(`{not json`))
	h := NewHistory(kv, match.DefaultLegacyPlayers, testLogger())

	got, err := h.Load(ctx, match.NineBall)
	if err != nil || len(got) != 0 {
		t.Errorf("Load corrupt = %v, %v, want empty", got, err)
	}
	if err := h.Append(ctx, match.NineBall, match.MatchRecord{}); err == nil {
		t.Error("Append over corrupt list error = nil, want error")
	}
	raw, _, _ := kv.Get(ctx, ResultsKey(match.NineBall))
	if string(raw) != `{not json` {
		t.Errorf("corrupt list overwritten: %s", raw)
	}
}

func TestHistoryFavorite(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewMemory(), match.DefaultLegacyPlayers, testLogger())

	fav, err := h.Favorite(ctx)
	if err != nil || fav != nil {
		t.Fatalf("Favorite on empty store = %v, %v, want nil", fav, err)
	}

	q := report.Query{Game: match.EightBall, Period: report.PeriodMonth, Player: "Ann", Opponent: report.All}
	if err := h.SetFavorite(ctx, q); err != nil {
		t.Fatalf("SetFavorite error: %v", err)
	}
	fav, err = h.Favorite(ctx)
	if err != nil || fav == nil || *fav != q {
		t.Errorf("Favorite = %v, %v, want %+v", fav, err, q)
	}
}

func TestHistoryFavoriteStoredFormat(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	kv.Put(ctx, "favorite", []byte(`{"game":"snooker","period":"ALL","player":"Sa","opponent":"Ri"}`))
	h := NewHistory(kv, match.DefaultLegacyPlayers, testLogger())

	fav, err := h.Favorite(ctx)
	if err != nil || fav == nil {
		t.Fatalf("Favorite = %v, %v", fav, err)
	}
	want := report.Query{Game: match.Snooker, Period: report.PeriodAll, Player: "Sa", Opponent: "Ri"}
	if *fav != want {
		t.Errorf("Favorite = %+v, want %+v", *fav, want)
	}
}

func TestHistoryPlayerNames(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewMemory(), match.DefaultLegacyPlayers, testLogger())

	ids, err := h.PlayerNames(ctx)
	if err != nil || ids != [2]string{"J1", "J2"} {
		t.Errorf("PlayerNames default = %v, %v, want seat labels", ids, err)
	}

	if err := h.SetPlayerName(ctx, match.J2, "  Rita "); err != nil {
		t.Fatalf("SetPlayerName error: %v", err)
	}
	name, err := h.PlayerName(ctx, match.J2)
	if err != nil || name != "Rita" {
		t.Errorf("PlayerName(J2) = %q, %v, want Rita", name, err)
	}
}
