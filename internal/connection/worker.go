package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Worker owns one persistent connection and a fixed batch of subscribed
// addresses. It drives the lifecycle
//
//	Idle → Connecting → Subscribing → Listening → Reconnecting → Stopped
//
// reconnecting itself on transport failure until the attempt ceiling is hit.
// Transport errors are always retried up to the ceiling; malformed frames are
// the pool's problem and never reach the worker.
type Worker struct {
	cfg    WorkerConfig
	logger *slog.Logger

	// Outputs to the pool.
	out    chan<- InboundMessage
	failed chan<- int // Receives the worker id on permanent failure

	// newClient is swappable for tests.
	newClient func(ClientConfig, *slog.Logger) Client

	mu       sync.RWMutex
	state    State
	attempts int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a Worker feeding the given pool channels.
func NewWorker(cfg WorkerConfig, out chan<- InboundMessage, failed chan<- int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:       cfg,
		logger:    logger.With("client_id", cfg.ID),
		out:       out,
		failed:    failed,
		newClient: NewClient,
		state:     StateIdle,
	}
}

// Start launches the worker's connection loop. A worker needs at least one
// address to subscribe to; Start fails with ErrNoAddresses otherwise.
func (w *Worker) Start(ctx context.Context) error {
	if len(w.cfg.Addresses) == 0 {
		return fmt.Errorf("client %d: %w", w.cfg.ID, ErrNoAddresses)
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop requests a cooperative shutdown and waits for the run loop to exit.
// A worker mid-backoff observes the cancellation before its next attempt, so
// shutdown is bounded by the backoff delay, not instantaneous.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Attempts returns the current consecutive reconnect attempt count.
func (w *Worker) Attempts() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attempts
}

// BatchSize returns the number of addresses assigned to this worker.
func (w *Worker) BatchSize() int {
	return len(w.cfg.Addresses)
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// run is the worker's single long-running goroutine.
func (w *Worker) run() {
	defer w.wg.Done()

	for {
		if w.ctx.Err() != nil {
			w.setState(StateStopped)
			return
		}

		w.setState(StateConnecting)
		client := w.newClient(w.cfg.Client, w.logger)

		if err := client.Connect(w.ctx); err != nil {
			w.logger.Warn("connect failed", "error", err)
			client.Close()
			if !w.backoff() {
				return
			}
			continue
		}

		w.setState(StateSubscribing)
		if err := w.subscribeAll(client); err != nil {
			w.logger.Warn("subscribe failed", "error", err)
			client.Close()
			if w.ctx.Err() != nil {
				w.setState(StateStopped)
				return
			}
			if !w.backoff() {
				return
			}
			continue
		}

		// All subscribe frames sent; the protocol sends no per-subscription
		// acks, so this is the listening entry point.
		w.setState(StateListening)
		w.resetAttempts()
		w.logger.Info("listening", "addresses", len(w.cfg.Addresses))

		err := w.listen(client)
		client.Close()

		if w.ctx.Err() != nil {
			w.setState(StateStopped)
			return
		}

		w.logger.Warn("connection lost", "error", err)
		if !w.backoff() {
			return
		}
	}
}

// subscribeAll issues one subscribe frame per assigned address, pacing sends
// so a fresh connection is not flooded.
func (w *Worker) subscribeAll(client Client) error {
	for i, addr := range w.cfg.Addresses {
		frame, err := SubscribeMessage(addr)
		if err != nil {
			return err
		}
		if err := client.Send(frame); err != nil {
			return err
		}

		if w.cfg.SubscribeDelay > 0 && i < len(w.cfg.Addresses)-1 {
			select {
			case <-w.ctx.Done():
				return w.ctx.Err()
			case <-time.After(w.cfg.SubscribeDelay):
			}
		}
	}
	return nil
}

// listen forwards inbound frames to the pool until the transport fails or
// the worker is stopped. Per-connection arrival order is preserved: one
// reader feeding one FIFO channel.
func (w *Worker) listen(client Client) error {
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()

		case err := <-client.Errors():
			return err

		case msg, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}
			w.forward(msg)
		}
	}
}

// forward pushes one frame into the pool channel with bounded patience.
// Backpressure past the grace window drops the frame rather than wedging
// the read loop.
func (w *Worker) forward(msg TimestampedMessage) {
	inbound := InboundMessage{
		Data:       msg.Data,
		ClientID:   w.cfg.ID,
		ReceivedAt: msg.ReceivedAt,
	}

	select {
	case w.out <- inbound:
		return
	default:
	}

	select {
	case w.out <- inbound:
	case <-w.ctx.Done():
	case <-time.After(w.cfg.OutBufferTimeout):
		w.logger.Warn("pool buffer full, dropping message")
	}
}

// backoff waits out the reconnect delay for the next attempt. Returns false
// when the worker should stop, either because the attempt ceiling was hit
// (permanent failure, reported to the pool) or shutdown was requested.
func (w *Worker) backoff() bool {
	w.mu.Lock()
	w.attempts++
	attempt := w.attempts
	w.mu.Unlock()

	if attempt > w.cfg.MaxAttempts {
		w.setState(StateStopped)
		w.logger.Error("reconnect attempt ceiling reached, giving up",
			"attempts", attempt-1,
			"addresses", len(w.cfg.Addresses),
		)
		select {
		case w.failed <- w.cfg.ID:
		default:
		}
		return false
	}

	w.setState(StateReconnecting)
	delay := ReconnectDelay(attempt, w.cfg.ReconnectBase, w.cfg.ReconnectMax)
	w.logger.Info("reconnecting",
		"attempt", attempt,
		"max_attempts", w.cfg.MaxAttempts,
		"delay", delay,
	)

	select {
	case <-w.ctx.Done():
		w.setState(StateStopped)
		return false
	case <-time.After(delay):
		return true
	}
}

func (w *Worker) resetAttempts() {
	w.mu.Lock()
	w.attempts = 0
	w.mu.Unlock()
}
