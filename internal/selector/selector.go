// Package selector turns a scored candidate list into the bounded set of
// addresses worth a live subscription slot.
package selector

import (
	"log/slog"
	"sort"

	"github.com/traderwatch/hl-monitor/internal/inference"
	"github.com/traderwatch/hl-monitor/internal/model"
)

// Picked is one selected candidate together with how it got in.
type Picked struct {
	Trader     model.CandidateTrader
	Inference  model.InferenceResult
	Backfilled bool // True if added to fill the quota despite a negative inference
}

// Stats summarizes one selection pass.
type Stats struct {
	Evaluated  int // Candidates examined
	Passed     int // Accepted via the inference filter
	Backfilled int // Accepted via the score-order backfill
}

// Selector applies position inference to pick subscription targets.
type Selector struct {
	cfg    inference.Config
	logger *slog.Logger
}

// New creates a Selector with the given filter thresholds.
func New(cfg inference.Config, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{cfg: cfg, logger: logger}
}

// Select returns up to targetCount candidates, highest score first.
//
// Candidates passing position inference are taken first. If fewer than
// targetCount pass, the remaining highest-score candidates are appended
// regardless of inference so the pool is never under-subscribed purely
// because of a strict filter; the backfill count is logged, not hidden.
// Output order is stable (score descending) so downstream partitioning is
// deterministic for a given input.
func (s *Selector) Select(candidates []model.CandidateTrader, targetCount int) ([]Picked, Stats) {
	if targetCount <= 0 || len(candidates) == 0 {
		return nil, Stats{}
	}

	ordered := make([]model.CandidateTrader, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	picked := make([]Picked, 0, targetCount)
	skipped := make([]Picked, 0, len(ordered))
	stats := Stats{}

	for _, c := range ordered {
		if len(picked) == targetCount {
			break
		}
		stats.Evaluated++

		res := inference.Evaluate(s.cfg, c)
		if res.HasPosition {
			picked = append(picked, Picked{Trader: c, Inference: res})
			stats.Passed++
		} else {
			skipped = append(skipped, Picked{Trader: c, Inference: res, Backfilled: true})
		}
	}

	// Backfill from the highest-score rejects until the quota is filled or
	// candidates are exhausted. Skipped entries are already score-ordered.
	for _, p := range skipped {
		if len(picked) == targetCount {
			break
		}
		picked = append(picked, p)
		stats.Backfilled++
	}

	// Restore global score order: filter-passed and backfilled entries were
	// accepted in two passes.
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Trader.Score > picked[j].Trader.Score
	})

	if stats.Backfilled > 0 {
		s.logger.Info("selection backfilled below-threshold candidates",
			"target", targetCount,
			"passed_filter", stats.Passed,
			"backfilled", stats.Backfilled,
		)
	}

	return picked, stats
}
