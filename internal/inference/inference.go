// Package inference classifies whether an address likely holds an open
// trading position, using only cheap windowed leaderboard metrics. No I/O,
// no state: Evaluate is pure and deterministic.
package inference

import (
	"math"

	"github.com/traderwatch/hl-monitor/internal/model"
)

// Inference reasons reported in InferenceResult.Reason.
const (
	ReasonDayROI         = "day_roi"
	ReasonPnLRatio       = "pnl_ratio"
	ReasonDayVolume      = "day_volume"
	ReasonFilterDisabled = "filter_disabled"
	ReasonNoSignal       = "no_signal"
)

// volumeConfidenceScale normalizes day volume into a [0,1] confidence.
const volumeConfidenceScale = 1_000_000

// Config holds the filter thresholds.
type Config struct {
	Disabled           bool    // Bypass mode: every candidate passes at 0.5
	DayROIThreshold    float64 // Rule 1: |day ROI| must exceed this
	PnLRatioThreshold  float64 // Rule 2: |day PnL| / account value must exceed this
	DayVolumeThreshold float64 // Rule 3: day volume (USD) must exceed this
}

// DefaultConfig returns the thresholds used in production.
func DefaultConfig() Config {
	return Config{
		DayROIThreshold:    0.001,
		PnLRatioThreshold:  0.0005,
		DayVolumeThreshold: 10_000,
	}
}

// Evaluate decides whether a candidate likely holds an open position.
//
// Rules are evaluated in fixed priority order; the first match wins:
//  1. |day ROI| above threshold
//  2. |day PnL| / account value above threshold (skipped for zero account value)
//  3. day volume above threshold
//
// Otherwise the result is negative with zero confidence.
func Evaluate(cfg Config, c model.CandidateTrader) model.InferenceResult {
	if cfg.Disabled {
		return model.InferenceResult{
			HasPosition: true,
			Reason:      ReasonFilterDisabled,
			Confidence:  0.5,
		}
	}

	day := c.Windows.Day

	if roi := math.Abs(day.ROI); roi > cfg.DayROIThreshold {
		return model.InferenceResult{
			HasPosition: true,
			Reason:      ReasonDayROI,
			Confidence:  capConfidence(roi * 100),
		}
	}

	if c.AccountValue > 0 {
		if ratio := math.Abs(day.PnL) / c.AccountValue; ratio > cfg.PnLRatioThreshold {
			return model.InferenceResult{
				HasPosition: true,
				Reason:      ReasonPnLRatio,
				Confidence:  capConfidence(ratio * 100),
			}
		}
	}

	if day.Volume > cfg.DayVolumeThreshold {
		return model.InferenceResult{
			HasPosition: true,
			Reason:      ReasonDayVolume,
			Confidence:  capConfidence(day.Volume / volumeConfidenceScale),
		}
	}

	return model.InferenceResult{
		HasPosition: false,
		Reason:      ReasonNoSignal,
		Confidence:  0.0,
	}
}

func capConfidence(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
