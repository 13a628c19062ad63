package pool

import (
	"sync"

	"github.com/traderwatch/hl-monitor/internal/model"
)

// UpdateBuffer accumulates position updates between flushes. It is the only
// resource shared between the decode loop and the flush paths; the lock is
// held only for append and drain-to-local-copy, never across I/O.
type UpdateBuffer struct {
	mu        sync.Mutex
	items     []model.PositionSnapshot
	threshold int

	totalAppended int64
	totalDrained  int64
}

// NewUpdateBuffer creates a buffer that reports full at threshold items.
func NewUpdateBuffer(threshold int) *UpdateBuffer {
	if threshold < 1 {
		threshold = 1
	}
	return &UpdateBuffer{
		items:     make([]model.PositionSnapshot, 0, threshold),
		threshold: threshold,
	}
}

// Append adds one update and reports the new length and whether the buffer
// has reached its flush threshold.
func (b *UpdateBuffer) Append(s model.PositionSnapshot) (n int, full bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, s)
	b.totalAppended++
	return len(b.items), len(b.items) >= b.threshold
}

// Drain removes and returns all buffered updates. Returns nil when empty so
// callers can treat an empty flush as a no-op.
func (b *UpdateBuffer) Drain() []model.PositionSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return nil
	}

	drained := b.items
	b.items = make([]model.PositionSnapshot, 0, b.threshold)
	b.totalDrained += int64(len(drained))
	return drained
}

// Len returns the current number of buffered updates.
func (b *UpdateBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// BufferStats contains buffer counters.
type BufferStats struct {
	Count         int
	TotalAppended int64
	TotalDrained  int64
}

// Stats returns buffer counters.
func (b *UpdateBuffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:         len(b.items),
		TotalAppended: b.totalAppended,
		TotalDrained:  b.totalDrained,
	}
}
