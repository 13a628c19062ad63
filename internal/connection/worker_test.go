package connection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testWorkerConfig(url string, addresses []string) WorkerConfig {
	cfg := DefaultWorkerConfig()
	cfg.ID = 1
	cfg.Addresses = addresses
	cfg.Client = testClientConfig(url)
	cfg.SubscribeDelay = 0
	cfg.ReconnectBase = 10 * time.Millisecond
	cfg.ReconnectMax = 50 * time.Millisecond
	cfg.MaxAttempts = 3
	return cfg
}

func waitForState(t *testing.T, w *Worker, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if w.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("worker never reached state %q, stuck at %q", want, w.State())
}

func TestWorker_StartRequiresAddresses(t *testing.T) {
	out := make(chan InboundMessage, 1)
	failed := make(chan int, 1)
	w := NewWorker(testWorkerConfig("ws://127.0.0.1:1", nil), out, failed, nil)

	if err := w.Start(context.Background()); !errors.Is(err, ErrNoAddresses) {
		t.Errorf("Start = %v, want ErrNoAddresses", err)
	}
	if got := w.State(); got != StateIdle {
		t.Errorf("State = %v after rejected Start, want %v", got, StateIdle)
	}
}

func TestWorker_SubscribesAssignedBatch(t *testing.T) {
	var mu sync.Mutex
	subscribed := make([]string, 0)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req subscribeRequest
			if json.Unmarshal(data, &req) == nil && req.Method == "subscribe" {
				mu.Lock()
				subscribed = append(subscribed, req.Subscription.User)
				mu.Unlock()
			}
		}
	})
	defer server.Close()

	addresses := []string{"0xaaa", "0xbbb", "0xccc"}
	out := make(chan InboundMessage, 10)
	failed := make(chan int, 1)

	w := NewWorker(testWorkerConfig(wsURL(server), addresses), out, failed, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	waitForState(t, w, StateListening, 2*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(subscribed)
		mu.Unlock()
		if n == len(addresses) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(subscribed) != len(addresses) {
		t.Fatalf("got %d subscribe frames, want %d", len(subscribed), len(addresses))
	}
	for i, addr := range addresses {
		if subscribed[i] != addr {
			t.Errorf("subscribe %d = %q, want %q", i, subscribed[i], addr)
		}
	}
}

func TestWorker_ForwardsMessagesWithClientID(t *testing.T) {
	frame := `{"channel":"webData2","data":{"user":"0xaaa","clearinghouseState":{"assetPositions":[],"marginSummary":{}}}}`

	server := mockWSServer(t, func(conn *websocket.Conn) {
		// Wait for the subscribe frame, then push one update.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(frame))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	out := make(chan InboundMessage, 10)
	failed := make(chan int, 1)
	cfg := testWorkerConfig(wsURL(server), []string{"0xaaa"})
	cfg.ID = 7

	w := NewWorker(cfg, out, failed, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	select {
	case msg := <-out:
		if msg.ClientID != 7 {
			t.Errorf("ClientID = %d, want 7", msg.ClientID)
		}
		if string(msg.Data) != frame {
			t.Errorf("Data = %s, want %s", msg.Data, frame)
		}
		if msg.ReceivedAt.IsZero() {
			t.Error("missing receive timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded message")
	}
}

func TestWorker_ReconnectsAfterServerClose(t *testing.T) {
	var mu sync.Mutex
	connects := 0

	server := mockWSServer(t, func(conn *websocket.Conn) {
		mu.Lock()
		connects++
		first := connects == 1
		mu.Unlock()

		if first {
			// Drop the first session right after the subscribe frame.
			conn.ReadMessage()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	out := make(chan InboundMessage, 10)
	failed := make(chan int, 1)

	w := NewWorker(testWorkerConfig(wsURL(server), []string{"0xaaa"}), out, failed, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// The worker must come back to listening on the second session and the
	// attempt counter must be reset by the successful entry.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := connects
		mu.Unlock()
		if n >= 2 && w.State() == StateListening {
			if got := w.Attempts(); got != 0 {
				t.Errorf("Attempts = %d after successful reconnect, want 0", got)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("worker never re-entered listening after disconnect")
}

func TestWorker_PermanentFailureAfterCeiling(t *testing.T) {
	// Nothing listens on this address, so every dial fails fast.
	cfg := testWorkerConfig("ws://127.0.0.1:1", []string{"0xaaa"})
	cfg.ID = 4

	out := make(chan InboundMessage, 1)
	failed := make(chan int, 1)

	w := NewWorker(cfg, out, failed, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	select {
	case id := <-failed:
		if id != 4 {
			t.Errorf("failure report id = %d, want 4", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker never reported permanent failure")
	}

	waitForState(t, w, StateStopped, 2*time.Second)
}

func TestWorker_StopDuringBackoff(t *testing.T) {
	cfg := testWorkerConfig("ws://127.0.0.1:1", []string{"0xaaa"})
	cfg.ReconnectBase = 10 * time.Second
	cfg.ReconnectMax = 10 * time.Second
	cfg.MaxAttempts = 100

	w := NewWorker(cfg, make(chan InboundMessage, 1), make(chan int, 1), nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitForState(t, w, StateReconnecting, 2*time.Second)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	// Stop must not wait out the 10s backoff delay.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked through the backoff delay")
	}

	if got := w.State(); got != StateStopped {
		t.Errorf("State = %q after Stop, want %q", got, StateStopped)
	}
}
