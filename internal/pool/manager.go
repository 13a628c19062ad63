package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/traderwatch/hl-monitor/internal/connection"
)

// Manager orchestrates the connection workers and the flush pipeline.
type Manager struct {
	cfg    Config
	source TargetSource
	sink   Sink
	logger *slog.Logger

	// Fan-in from all workers; bounded, so backpressure is explicit.
	inbound chan connection.InboundMessage
	failed  chan int
	buffer  *UpdateBuffer
	workers []*connection.Worker

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Counters
	statsMu     sync.Mutex
	decoded     int64
	dropped     int64
	flushes     int64
	writeErrors int64
}

// NewManager creates a pool Manager.
func NewManager(cfg Config, source TargetSource, sink Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		source:  source,
		sink:    sink,
		logger:  logger,
		inbound: make(chan connection.InboundMessage, cfg.InboundBufferSize),
		failed:  make(chan int, cfg.PoolSize),
		buffer:  NewUpdateBuffer(cfg.BufferSizeThreshold),
	}
}

// Start fetches the tracked target set, partitions it across workers, starts
// them concurrently, and launches the consume, flush, and health loops.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	targets, err := m.source.ActiveTargets(m.ctx)
	if err != nil {
		return fmt.Errorf("fetch tracked targets: %w", err)
	}

	addresses := make([]string, 0, len(targets))
	for _, t := range targets {
		addresses = append(addresses, t.Address)
	}

	// Every target must land in exactly one client batch; an oversized set
	// is a hard error, never a silent truncation.
	batches := Partition(addresses, m.cfg.BatchSize)
	if len(batches) > m.cfg.PoolSize {
		return fmt.Errorf("target set exceeds pool capacity: %d targets need %d clients, pool size is %d",
			len(addresses), len(batches), m.cfg.PoolSize)
	}

	m.workers = make([]*connection.Worker, 0, len(batches))
	for i, batch := range batches {
		wcfg := m.cfg.Worker
		wcfg.ID = i
		wcfg.Addresses = batch
		m.workers = append(m.workers, connection.NewWorker(wcfg, m.inbound, m.failed, m.logger))
	}

	g := new(errgroup.Group)
	for _, w := range m.workers {
		g.Go(func() error { return w.Start(m.ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	m.wg.Add(3)
	go m.consumeLoop()
	go m.flushLoop()
	go m.healthLoop()

	m.running.Store(true)
	m.logger.Info("connection pool started",
		"clients", len(m.workers),
		"targets", len(addresses),
		"batch_size", m.cfg.BatchSize,
	)
	return nil
}

// Stop shuts the pool down cooperatively: loops exit at their next
// suspension point, workers stop concurrently, and one final flush persists
// whatever the buffer still holds. No buffered data is lost on clean
// shutdown.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection pool")
	m.running.Store(false)

	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout waiting for pool loops")
	}

	g := new(errgroup.Group)
	for _, w := range m.workers {
		g.Go(func() error {
			w.Stop()
			return nil
		})
	}
	g.Wait()

	// Residual frames delivered between loop exit and worker stop.
	m.drainInbound()
	m.flush()

	m.logger.Info("connection pool stopped")
	return nil
}

// Stats returns a point-in-time view of the pool.
func (m *Manager) Stats() Stats {
	connected := 0
	for _, w := range m.workers {
		if w.State().Connected() {
			connected++
		}
	}

	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return Stats{
		Running:          m.running.Load(),
		TotalClients:     len(m.workers),
		ConnectedClients: connected,
		BufferSize:       m.buffer.Len(),
		Decoded:          m.decoded,
		Dropped:          m.dropped,
		Flushes:          m.flushes,
		WriteErrors:      m.writeErrors,
	}
}

// consumeLoop is the single consumer of the fan-in channel.
func (m *Manager) consumeLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case msg := <-m.inbound:
			m.handleMessage(msg)
		}
	}
}

// handleMessage decodes one frame and buffers position updates. Malformed
// frames are logged and dropped; they never affect connection state.
func (m *Manager) handleMessage(msg connection.InboundMessage) {
	ev, err := connection.DecodeEvent(msg)
	if err != nil {
		m.logger.Warn("dropping malformed message",
			"client_id", msg.ClientID,
			"error", err,
		)
		m.statsMu.Lock()
		m.dropped++
		m.statsMu.Unlock()
		return
	}

	switch ev.Kind {
	case connection.KindPosition:
		m.statsMu.Lock()
		m.decoded++
		m.statsMu.Unlock()

		_, full := m.buffer.Append(*ev.Snapshot)
		if full {
			// Size trigger: flush eagerly, inline.
			m.flush()
		}

	case connection.KindControl:
		// Protocol chatter, nothing to persist.

	case connection.KindUnknown:
		m.logger.Debug("skipping unrecognized channel",
			"channel", ev.Channel,
			"client_id", msg.ClientID,
		)
	}
}

// flushLoop fires the timer-driven flush.
func (m *Manager) flushLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.flush()
		}
	}
}

// flush drains the buffer under its lock, then writes outside the lock so
// inbound messages are never blocked on I/O. Flushing an empty buffer makes
// no store call.
func (m *Manager) flush() {
	batch := m.buffer.Drain()
	if len(batch) == 0 {
		return
	}

	// The write must survive pool shutdown: the final flush runs after the
	// pool context is cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.WriteTimeout)
	defer cancel()

	start := time.Now()
	var failed int64

	if err := m.sink.InsertSnapshots(ctx, batch); err != nil {
		m.logger.Error("snapshot history write failed", "error", err, "count", len(batch))
		failed++
	}
	if err := m.sink.UpsertCurrentStates(ctx, batch); err != nil {
		m.logger.Error("current state upsert failed", "error", err, "count", len(batch))
		failed++
	}

	m.statsMu.Lock()
	m.flushes++
	m.writeErrors += failed
	m.statsMu.Unlock()

	m.logger.Debug("flushed position updates",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// healthLoop logs connection health and permanent client failures.
func (m *Manager) healthLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return

		case id := <-m.failed:
			// Policy: the failed worker's batch stays unmonitored until the
			// next selection cycle restart; no auto-replacement.
			batch := 0
			if id >= 0 && id < len(m.workers) {
				batch = m.workers[id].BatchSize()
			}
			m.logger.Error("client permanently failed",
				"client_id", id,
				"unmonitored_addresses", batch,
			)

		case <-ticker.C:
			stats := m.Stats()
			m.logger.Info("pool health",
				"connected", stats.ConnectedClients,
				"total", stats.TotalClients,
				"buffer", stats.BufferSize,
			)
		}
	}
}

// drainInbound decodes whatever is still queued on the fan-in channel.
func (m *Manager) drainInbound() {
	for {
		select {
		case msg := <-m.inbound:
			m.handleMessage(msg)
		default:
			return
		}
	}
}
