package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/cuescore/pkg/match"
)

func TestWorkerPoolScoring(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: 2,
		MaxSlowWorkers: 1,
	})

	if err := pool.AcquireFast(context.Background()); err != nil {
		t.Fatalf("AcquireFast error: %v", err)
	}

	stats := pool.Stats()
	if stats.ActiveFast != 1 {
		t.Errorf("ActiveFast = %d, want 1", stats.ActiveFast)
	}

	pool.ReleaseFast()
	stats = pool.Stats()
	if stats.ActiveFast != 0 {
		t.Errorf("ActiveFast after release = %d, want 0", stats.ActiveFast)
	}
	if stats.TotalFast != 1 {
		t.Errorf("TotalFast = %d, want 1", stats.TotalFast)
	}
}

func TestWorkerPoolReports(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{
		MaxFastWorkers: 10,
		MaxSlowWorkers: 2,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := pool.AcquireSlow(ctx); err != nil {
			t.Fatalf("AcquireSlow %d error: %v", i, err)
		}
	}
	if stats := pool.Stats(); stats.ActiveSlow != 2 {
		t.Errorf("ActiveSlow = %d, want 2", stats.ActiveSlow)
	}
	if pool.TryAcquireSlow() {
		t.Error("TryAcquireSlow = true on a full pool")
	}

	pool.ReleaseSlow()
	pool.ReleaseSlow()
	if stats := pool.Stats(); stats.TotalSlow != 2 {
		t.Errorf("TotalSlow = %d, want 2", stats.TotalSlow)
	}
}

func TestWorkerPoolCancelledWait(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 1, MaxSlowWorkers: 1})
	if !pool.TryAcquireSlow() {
		t.Fatal("TryAcquireSlow = false on empty pool")
	}
	defer pool.ReleaseSlow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := pool.AcquireSlow(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AcquireSlow error = %v, want %v", err, context.DeadlineExceeded)
	}
	if stats := pool.Stats(); stats.QueuedSlow != 0 {
		t.Errorf("QueuedSlow = %d, want 0 after giving up", stats.QueuedSlow)
	}
}

// Concurrent scoring requests on one match are all applied.
func TestWorkerPoolConcurrentScoring(t *testing.T) {
	pool := NewWorkerPool(PoolConfig{MaxFastWorkers: 3, MaxSlowWorkers: 1})
	h := NewHandlersWithPool(nil, "1.0.0", pool, testLogger())
	h.Start(match.Snooker, match.J1, [2]string{"Ann", "Bob"})
	routes := http.HandlerFunc(h.Points)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest("POST", "/api/match/points", strings.NewReader(`{"points":1}`))
			w := httptest.NewRecorder()
			routes.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("status = %d", w.Code)
			}
		}()
	}
	wg.Wait()

	stats := pool.Stats()
	if stats.TotalFast != 20 || stats.ActiveFast != 0 {
		t.Errorf("stats = %+v, want 20 completed", stats)
	}
	if got := h.current().Response().View.Scores[0]; got != 20 {
		t.Errorf("score = %d, want 20", got)
	}
}

func TestWorkerPoolDefaults(t *testing.T) {
	stats := NewWorkerPool(PoolConfig{}).Stats()
	want := DefaultPoolConfig()
	if stats.MaxFast != want.MaxFastWorkers || stats.MaxSlow != want.MaxSlowWorkers {
		t.Errorf("limits = %d/%d, want %d/%d", stats.MaxFast, stats.MaxSlow, want.MaxFastWorkers, want.MaxSlowWorkers)
	}
}
