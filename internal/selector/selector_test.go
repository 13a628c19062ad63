package selector

import (
	"fmt"
	"testing"

	"github.com/traderwatch/hl-monitor/internal/inference"
	"github.com/traderwatch/hl-monitor/internal/model"
)

// makeCandidates builds n candidates with descending scores. Candidates with
// index < positives carry a day ROI strong enough to pass the filter.
func makeCandidates(n, positives int) []model.CandidateTrader {
	out := make([]model.CandidateTrader, 0, n)
	for i := 0; i < n; i++ {
		c := model.CandidateTrader{
			Address:      fmt.Sprintf("0x%040x", i),
			AccountValue: 100_000,
			Score:        float64(n - i),
		}
		if i < positives {
			c.Windows.Day.ROI = 0.05
		}
		out = append(out, c)
	}
	return out
}

func testConfig() inference.Config {
	return inference.Config{
		DayROIThreshold:    0.001,
		PnLRatioThreshold:  0.0005,
		DayVolumeThreshold: 10_000,
	}
}

func TestSelect_LengthProperty(t *testing.T) {
	s := New(testConfig(), nil)

	tests := []struct {
		candidates int
		positives  int
		target     int
	}{
		{0, 0, 10},
		{5, 5, 10},
		{10, 3, 10},
		{100, 0, 25},
		{100, 100, 25},
	}

	for _, tt := range tests {
		picked, _ := s.Select(makeCandidates(tt.candidates, tt.positives), tt.target)
		want := tt.target
		if tt.candidates < want {
			want = tt.candidates
		}
		if len(picked) != want {
			t.Errorf("Select(%d candidates, target %d) returned %d, want %d",
				tt.candidates, tt.target, len(picked), want)
		}
	}
}

func TestSelect_BackfillScenario(t *testing.T) {
	// 1,237 candidates, 480 pass the filter, target 500: expect exactly 500
	// entries, 480 via filter, 20 via backfill.
	s := New(testConfig(), nil)
	picked, stats := s.Select(makeCandidates(1237, 480), 500)

	if len(picked) != 500 {
		t.Fatalf("len = %d, want 500", len(picked))
	}
	if stats.Passed != 480 {
		t.Errorf("Passed = %d, want 480", stats.Passed)
	}
	if stats.Backfilled != 20 {
		t.Errorf("Backfilled = %d, want 20", stats.Backfilled)
	}

	var filtered, backfilled int
	for _, p := range picked {
		if p.Backfilled {
			backfilled++
			if p.Inference.HasPosition {
				t.Errorf("backfilled entry %s has positive inference", p.Trader.Address)
			}
		} else {
			filtered++
			if !p.Inference.HasPosition {
				t.Errorf("filter entry %s has negative inference", p.Trader.Address)
			}
		}
	}
	if filtered != 480 || backfilled != 20 {
		t.Errorf("filtered/backfilled = %d/%d, want 480/20", filtered, backfilled)
	}
}

func TestSelect_ScoreDescendingOutput(t *testing.T) {
	s := New(testConfig(), nil)

	// Mixed positives so filter and backfill interleave by score.
	cands := makeCandidates(50, 25)
	picked, _ := s.Select(cands, 40)

	for i := 1; i < len(picked); i++ {
		if picked[i].Trader.Score > picked[i-1].Trader.Score {
			t.Fatalf("output not score-descending at %d: %v > %v",
				i, picked[i].Trader.Score, picked[i-1].Trader.Score)
		}
	}
}

func TestSelect_NoBackfillWhenEnoughPass(t *testing.T) {
	s := New(testConfig(), nil)
	picked, stats := s.Select(makeCandidates(100, 100), 50)

	if stats.Backfilled != 0 {
		t.Errorf("Backfilled = %d, want 0", stats.Backfilled)
	}
	for _, p := range picked {
		if p.Backfilled {
			t.Errorf("unexpected backfilled entry %s", p.Trader.Address)
		}
	}
}

func TestSelect_UnsortedInput(t *testing.T) {
	s := New(testConfig(), nil)

	// Reverse the input; output must still be score-descending.
	cands := makeCandidates(20, 20)
	for i, j := 0, len(cands)-1; i < j; i, j = i+1, j-1 {
		cands[i], cands[j] = cands[j], cands[i]
	}

	picked, _ := s.Select(cands, 10)
	if len(picked) != 10 {
		t.Fatalf("len = %d, want 10", len(picked))
	}
	if picked[0].Trader.Score != 20 {
		t.Errorf("top score = %v, want 20", picked[0].Trader.Score)
	}
}

func TestScoreAll(t *testing.T) {
	cands := []model.CandidateTrader{
		{Windows: model.PerformanceWindows{
			Day:   model.WindowPerformance{PnL: 100},
			Week:  model.WindowPerformance{PnL: 200},
			Month: model.WindowPerformance{PnL: 300},
		}},
	}

	ScoreAll(cands)
	want := 0.5*100 + 0.3*200 + 0.2*300
	if cands[0].Score != want {
		t.Errorf("Score = %v, want %v", cands[0].Score, want)
	}
}
