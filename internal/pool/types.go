package pool

import (
	"context"
	"time"

	"github.com/traderwatch/hl-monitor/internal/connection"
	"github.com/traderwatch/hl-monitor/internal/model"
)

// TargetSource provides the current tracked target set, active only,
// highest score first.
type TargetSource interface {
	ActiveTargets(ctx context.Context) ([]model.TrackedTarget, error)
}

// Sink receives flushed position updates. Implementations must tolerate
// concurrent flush cycles; per-address consistency is last-write-wins on
// the snapshot timestamp.
type Sink interface {
	// InsertSnapshots appends snapshots to the position history.
	InsertSnapshots(ctx context.Context, snaps []model.PositionSnapshot) error

	// UpsertCurrentStates overwrites the latest-state row per address.
	UpsertCurrentStates(ctx context.Context, snaps []model.PositionSnapshot) error
}

// Config holds pool manager settings.
type Config struct {
	PoolSize            int           // Max concurrent connection workers
	BatchSize           int           // Addresses per worker
	InboundBufferSize   int           // Fan-in channel capacity
	BufferSizeThreshold int           // Eager flush once this many updates buffered
	FlushInterval       time.Duration // Timer-driven flush period
	HealthInterval      time.Duration // Health check period
	WriteTimeout        time.Duration // Deadline for one flush write

	// Worker is the template for every connection worker; the manager fills
	// in ID and Addresses per batch.
	Worker connection.WorkerConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PoolSize:            5,
		BatchSize:           100,
		InboundBufferSize:   1000,
		BufferSizeThreshold: 500,
		FlushInterval:       10 * time.Second,
		HealthInterval:      30 * time.Second,
		WriteTimeout:        30 * time.Second,
		Worker:              connection.DefaultWorkerConfig(),
	}
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Running          bool  `json:"running"`
	TotalClients     int   `json:"total_clients"`
	ConnectedClients int   `json:"connected_clients"`
	BufferSize       int   `json:"buffer_size"`
	Decoded          int64 `json:"decoded"`
	Dropped          int64 `json:"dropped"`
	Flushes          int64 `json:"flushes"`
	WriteErrors      int64 `json:"write_errors"`
}
