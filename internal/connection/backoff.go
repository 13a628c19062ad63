package connection

import "time"

// maxShift bounds the doubling so the computation cannot overflow before the
// cap applies.
const maxShift = 32

// ReconnectDelay returns the wait before reconnect attempt n (1-based):
//
//	min(base * 2^(n-1), max)
//
// Pure so the backoff schedule is testable without real time passing. The
// caller owns the attempt counter and resets it after a successful entry
// into the listening state.
func ReconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > maxShift {
		shift = maxShift
	}

	delay := base << shift
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
