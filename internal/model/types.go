package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Candidate Types
// -----------------------------------------------------------------------------

// WindowPerformance holds performance metrics over a single leaderboard window.
type WindowPerformance struct {
	PnL    float64 // Realized + unrealized PnL over the window (USD)
	ROI    float64 // Return on investment over the window (fraction, 0.05 = 5%)
	Volume float64 // Notional trading volume over the window (USD)
}

// PerformanceWindows groups the standard leaderboard windows.
type PerformanceWindows struct {
	Day     WindowPerformance
	Week    WindowPerformance
	Month   WindowPerformance
	AllTime WindowPerformance
}

// CandidateTrader is a scored leaderboard entry under consideration for a
// live subscription slot. Immutable once scored.
type CandidateTrader struct {
	Address      string             // Primary key (0x-prefixed hex)
	DisplayName  string             // Optional leaderboard display name
	AccountValue float64            // Current account value (USD)
	Windows      PerformanceWindows // Windowed performance record
	Score        float64            // Selection score, higher is better
}

// InferenceResult is the outcome of position inference for one candidate.
// Derived, never persisted standalone.
type InferenceResult struct {
	HasPosition bool    // Whether the candidate likely holds an open position
	Reason      string  // Which rule fired (e.g. "day_roi", "filter_disabled")
	Confidence  float64 // Confidence in [0, 1]
}

// -----------------------------------------------------------------------------
// Tracking Types
// -----------------------------------------------------------------------------

// TrackedTarget is a selection outcome: an address assigned to a connection
// slot for one selection cycle. The full set is replaced each cycle; entries
// absent from the new cycle are marked inactive, never deleted.
type TrackedTarget struct {
	Address   string    // Monitored address
	Reason    string    // Inference reason at selection time
	Score     float64   // Selection score at selection time
	ClientID  int       // Assigned connection client (0-based)
	CycleID   uuid.UUID // Selection cycle that produced this entry
	Active    bool      // False once superseded by a later cycle
	UpdatedAt time.Time // Last cycle that touched this row
}

// -----------------------------------------------------------------------------
// Snapshot Types
// -----------------------------------------------------------------------------

// PositionEntry is a single non-zero position held by an address.
type PositionEntry struct {
	Coin           string  // Asset symbol (e.g. "BTC")
	Size           float64 // Signed position size (positive = long)
	EntryPrice     float64 // Average entry price
	PositionValue  float64 // Current notional value (USD)
	UnrealizedPnL  float64 // Unrealized PnL (USD)
	LeverageValue  float64 // Current leverage multiplier
	LiquidationPx  float64 // Liquidation price, 0 if none reported
	MarginUsed     float64 // Margin allocated to this position (USD)
	ReturnOnEquity float64 // Position ROE (fraction)
}

// MarginSummary is the account-level margin state attached to a snapshot.
type MarginSummary struct {
	AccountValue    float64 // Total account value (USD)
	TotalNotional   float64 // Total notional position (USD)
	TotalMarginUsed float64 // Total margin in use (USD)
	TotalRawUSD     float64 // Raw USD balance (USD)
}

// PositionSnapshot is one observed position state for an address.
// Append-only history; CurrentState is the upserted latest-state view.
type PositionSnapshot struct {
	Address    string          // Observed address
	Timestamp  time.Time       // Exchange state timestamp
	ReceivedAt time.Time       // Local receive timestamp
	Positions  []PositionEntry // Non-zero positions only
	Margin     MarginSummary   // Account margin summary
	Source     string          // "ws" or "rest"
	ClientID   int             // Connection client that observed it (-1 for rest)
}

// CurrentState is the latest-known snapshot for an address, one row per
// address, overwritten on each update (last-write-wins on Timestamp).
type CurrentState struct {
	Address       string
	Timestamp     time.Time
	PositionCount int
	Positions     []PositionEntry
	Margin        MarginSummary
	UpdatedAt     time.Time
}
