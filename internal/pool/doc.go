// Package pool implements the connection pool manager.
//
// The Manager:
//   - Partitions the tracked target set into fixed-size batches, one per
//     connection worker
//   - Fans all inbound frames into one bounded channel consumed by a single
//     decode loop
//   - Accumulates decoded position updates in a lock-guarded buffer flushed
//     on a size threshold or a timer, whichever fires first
//   - Runs a periodic health check over worker states
//
// Workers self-heal via their own reconnect logic; the pool observes but
// does not remediate. A permanently failed worker leaves its batch
// unmonitored until the next selection cycle restart.
package pool
