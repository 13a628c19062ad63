// Package connection implements the persistent WebSocket layer.
//
// Two pieces:
//   - Client: one raw WebSocket session (dial, serialized writes, buffered
//     read channel, ping/pong heartbeat).
//   - Worker: one subscription batch. Owns a Client, subscribes its assigned
//     addresses, forwards inbound frames to the pool, and reconnects itself
//     with bounded exponential backoff until an attempt ceiling is hit.
package connection
