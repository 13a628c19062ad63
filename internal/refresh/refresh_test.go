package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/traderwatch/hl-monitor/internal/inference"
	"github.com/traderwatch/hl-monitor/internal/model"
	"github.com/traderwatch/hl-monitor/internal/selector"
)

type stubSource struct {
	candidates []model.CandidateTrader
	err        error
}

func (s *stubSource) Leaderboard(ctx context.Context) ([]model.CandidateTrader, error) {
	return s.candidates, s.err
}

type stubStore struct {
	mu      sync.Mutex
	cycles  []uuid.UUID
	targets [][]model.TrackedTarget
	err     error
}

func (s *stubStore) ReplaceTrackedTargets(ctx context.Context, cycleID uuid.UUID, targets []model.TrackedTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.cycles = append(s.cycles, cycleID)
	s.targets = append(s.targets, targets)
	return nil
}

func makeCandidates(n int) []model.CandidateTrader {
	out := make([]model.CandidateTrader, n)
	for i := range out {
		out[i] = model.CandidateTrader{
			Address:      fmt.Sprintf("0x%040x", i+1),
			AccountValue: 100_000,
			Windows: model.PerformanceWindows{
				Day: model.WindowPerformance{PnL: float64(n - i), ROI: 0.05, Volume: 50_000},
			},
		}
	}
	return out
}

func newTestRefresher(cfg Config, source LeaderboardSource, store TargetStore) *Refresher {
	sel := selector.New(inference.DefaultConfig(), nil)
	return New(cfg, source, sel, store, nil)
}

func TestRunCycle(t *testing.T) {
	source := &stubSource{candidates: makeCandidates(10)}
	store := &stubStore{}

	cfg := DefaultConfig()
	cfg.TargetCount = 4
	cfg.BatchSize = 2

	r := newTestRefresher(cfg, source, store)
	targets, err := r.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if len(targets) != 4 {
		t.Fatalf("len(targets) = %d, want 4", len(targets))
	}
	if len(store.cycles) != 1 {
		t.Fatalf("store cycles = %d, want 1", len(store.cycles))
	}

	// All targets share the installed cycle id and are active.
	for i, tgt := range targets {
		if tgt.CycleID != store.cycles[0] {
			t.Errorf("target %d CycleID = %v, want %v", i, tgt.CycleID, store.cycles[0])
		}
		if !tgt.Active {
			t.Errorf("target %d not active", i)
		}
	}

	// Slot assignment follows selection order: batch_size addresses per client.
	wantClients := []int{0, 0, 1, 1}
	for i, tgt := range targets {
		if tgt.ClientID != wantClients[i] {
			t.Errorf("target %d ClientID = %d, want %d", i, tgt.ClientID, wantClients[i])
		}
	}

	// Scores descend with selection order.
	for i := 1; i < len(targets); i++ {
		if targets[i].Score > targets[i-1].Score {
			t.Errorf("targets not score-descending at %d: %v > %v", i, targets[i].Score, targets[i-1].Score)
		}
	}
}

func TestRunCycleSourceError(t *testing.T) {
	source := &stubSource{err: errors.New("boom")}
	store := &stubStore{}

	r := newTestRefresher(DefaultConfig(), source, store)
	if _, err := r.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(store.cycles) != 0 {
		t.Errorf("store cycles = %d, want 0 on failed fetch", len(store.cycles))
	}
}

func TestRunCycleEmptyUniverse(t *testing.T) {
	source := &stubSource{}
	store := &stubStore{}

	r := newTestRefresher(DefaultConfig(), source, store)
	if _, err := r.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error for empty candidate universe, got nil")
	}
	if len(store.cycles) != 0 {
		t.Errorf("store cycles = %d, want 0", len(store.cycles))
	}
}

func TestRunCycleStoreError(t *testing.T) {
	source := &stubSource{candidates: makeCandidates(3)}
	store := &stubStore{err: errors.New("db down")}

	r := newTestRefresher(DefaultConfig(), source, store)
	if _, err := r.RunCycle(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPeriodicCycles(t *testing.T) {
	source := &stubSource{candidates: makeCandidates(5)}
	store := &stubStore{}

	cfg := DefaultConfig()
	cfg.Interval = 20 * time.Millisecond
	cfg.TargetCount = 5
	cfg.BatchSize = 100

	r := newTestRefresher(cfg, source, store)

	var onCycle sync.WaitGroup
	onCycle.Add(2)
	seen := 0
	r.OnCycle = func(targets []model.TrackedTarget) {
		// Runs on the refresher goroutine, so no locking needed.
		if seen < 2 {
			seen++
			onCycle.Done()
		}
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		onCycle.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for periodic cycles")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	store.mu.Lock()
	cycles := len(store.cycles)
	store.mu.Unlock()
	if cycles < 2 {
		t.Errorf("store cycles = %d, want >= 2", cycles)
	}
}
