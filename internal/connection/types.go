package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrMaxAttempts     = errors.New("reconnect attempt ceiling reached")
	ErrNoAddresses     = errors.New("no addresses assigned")
)

// TimestampedMessage wraps raw frame bytes with the local receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// InboundMessage is a raw frame handed from a Worker to the pool, tagged
// with its source client. Created on receipt, consumed once decoded.
type InboundMessage struct {
	Data       []byte
	ClientID   int
	ReceivedAt time.Time
}

// ClientConfig configures a single WebSocket session.
type ClientConfig struct {
	URL               string        // WebSocket URL (e.g. wss://api.hyperliquid.xyz/ws)
	HeartbeatInterval time.Duration // Interval between keepalive pings
	PingTimeout       time.Duration // Max silence before the connection is stale
	WriteTimeout      time.Duration // Write deadline for sends
	BufferSize        int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HeartbeatInterval: 30 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1000,
	}
}

// WorkerConfig configures one subscription batch.
type WorkerConfig struct {
	ID        int      // Client id, stable across reconnects
	Addresses []string // Assigned batch, fixed for the worker's lifetime

	Client ClientConfig

	SubscribeDelay   time.Duration // Pause between subscribe frames
	ReconnectBase    time.Duration // Backoff base delay
	ReconnectMax     time.Duration // Backoff cap
	MaxAttempts      int           // Consecutive failed attempts before giving up
	OutBufferTimeout time.Duration // Max wait pushing into a full pool channel
}

// DefaultWorkerConfig returns sensible defaults.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Client:           DefaultClientConfig(),
		SubscribeDelay:   100 * time.Millisecond,
		ReconnectBase:    5 * time.Second,
		ReconnectMax:     60 * time.Second,
		MaxAttempts:      10,
		OutBufferTimeout: time.Second,
	}
}

// State identifies where a Worker is in its connection lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateSubscribing  State = "subscribing"
	StateListening    State = "listening"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// Connected reports whether the state has a live transport session.
func (s State) Connected() bool {
	return s == StateSubscribing || s == StateListening
}
