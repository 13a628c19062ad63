// Package store implements the position persistence boundary on PostgreSQL.
//
// Three shapes, all safe under concurrent flush cycles:
//   - append-only position history writes (one row per snapshot)
//   - idempotent current-state upserts (one row per address, last-write-wins
//     on the snapshot timestamp)
//   - tracked-target reads and full per-cycle replacement (superseded rows
//     are marked inactive, never deleted)
package store
