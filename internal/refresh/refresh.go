package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/traderwatch/hl-monitor/internal/model"
	"github.com/traderwatch/hl-monitor/internal/selector"
)

// LeaderboardSource provides the candidate universe for a selection cycle.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context) ([]model.CandidateTrader, error)
}

// TargetStore persists the outcome of a selection cycle.
type TargetStore interface {
	ReplaceTrackedTargets(ctx context.Context, cycleID uuid.UUID, targets []model.TrackedTarget) error
}

// Config holds refresher settings.
type Config struct {
	Interval    time.Duration // Time between selection cycles
	TargetCount int           // Addresses to select per cycle
	BatchSize   int           // Addresses per connection client, for slot assignment
	Timeout     time.Duration // Deadline for one cycle
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Hour,
		TargetCount: 500,
		BatchSize:   100,
		Timeout:     2 * time.Minute,
	}
}

// Refresher periodically re-selects the tracked target set.
type Refresher struct {
	cfg    Config
	source LeaderboardSource
	sel    *selector.Selector
	store  TargetStore
	logger *slog.Logger

	// OnCycle, if set, is called after each successful periodic cycle with
	// the newly installed target set.
	OnCycle func(targets []model.TrackedTarget)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Refresher.
func New(cfg Config, source LeaderboardSource, sel *selector.Selector, store TargetStore, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cfg:    cfg,
		source: source,
		sel:    sel,
		store:  store,
		logger: logger.With("component", "refresher"),
	}
}

// Start begins the periodic cycle loop. The first cycle fires after one
// interval; run an explicit RunCycle beforehand to seed the target set.
func (r *Refresher) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("target refresher started",
		"interval", r.cfg.Interval,
		"target_count", r.cfg.TargetCount,
	)
	return nil
}

// Stop gracefully shuts down the refresher.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("target refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			targets, err := r.RunCycle(r.ctx)
			if err != nil {
				// A failed cycle leaves the previous target set installed.
				r.logger.Error("selection cycle failed", "error", err)
				continue
			}
			if r.OnCycle != nil {
				r.OnCycle(targets)
			}
		}
	}
}

// RunCycle executes one selection cycle: fetch, score, select, persist.
// Returns the installed target set.
func (r *Refresher) RunCycle(ctx context.Context) ([]model.TrackedTarget, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()

	candidates, err := r.source.Leaderboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("empty candidate universe")
	}

	scored := selector.ScoreAll(candidates)
	picked, stats := r.sel.Select(scored, r.cfg.TargetCount)

	cycleID := uuid.New()
	now := time.Now().UTC()

	targets := make([]model.TrackedTarget, len(picked))
	for i, p := range picked {
		targets[i] = model.TrackedTarget{
			Address:   p.Trader.Address,
			Reason:    p.Inference.Reason,
			Score:     p.Trader.Score,
			ClientID:  i / r.cfg.BatchSize,
			CycleID:   cycleID,
			Active:    true,
			UpdatedAt: now,
		}
	}

	if err := r.store.ReplaceTrackedTargets(ctx, cycleID, targets); err != nil {
		return nil, fmt.Errorf("install cycle %s: %w", cycleID, err)
	}

	r.logger.Info("selection cycle complete",
		"cycle_id", cycleID,
		"candidates", len(candidates),
		"selected", len(targets),
		"passed_filter", stats.Passed,
		"backfilled", stats.Backfilled,
		"elapsed", time.Since(start),
	)
	return targets, nil
}
