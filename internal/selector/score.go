package selector

import "github.com/traderwatch/hl-monitor/internal/model"

// Window weights for scoring. Recent performance dominates so that traders
// active today outrank large but dormant accounts.
const (
	dayWeight   = 0.5
	weekWeight  = 0.3
	monthWeight = 0.2
)

// Score computes the selection score for a candidate from its windowed PnL.
// Higher is better. Candidates are scored once, at leaderboard ingest.
func Score(c model.CandidateTrader) float64 {
	w := c.Windows
	return dayWeight*w.Day.PnL + weekWeight*w.Week.PnL + monthWeight*w.Month.PnL
}

// ScoreAll scores every candidate in place and returns the slice.
func ScoreAll(candidates []model.CandidateTrader) []model.CandidateTrader {
	for i := range candidates {
		candidates[i].Score = Score(candidates[i])
	}
	return candidates
}
