// Package model defines shared data types used across the trader monitor.
//
// Conventions:
//   - Monetary values: float64 USD (the exchange reports decimal strings; the
//     wire layers convert at the boundary)
//   - Timestamps: time.Time in UTC
//   - IDs: 0x-prefixed hex strings for addresses, uuid.UUID for selection cycles
package model
