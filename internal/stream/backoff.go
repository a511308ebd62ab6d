// ABOUTME: Reconnection delay computation with exponential backoff and jitter.
// ABOUTME: Jitter prevents independent sessions from correlating into retry storms.

package stream

import (
	"math"
	"math/rand"
	"time"
)

// retryDelay computes the wait before reconnect attempt n (1-based).
//
// With exponential backoff the delay is initial * 2^(n-1), scaled by a jitter
// factor drawn uniformly from [0.5, 1.0), capped at max. Without it the delay
// is the constant initial value.
func retryDelay(initial, max time.Duration, attempt int, exponential bool) time.Duration {
	if !exponential {
		return initial
	}
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(initial) * math.Pow(2, float64(attempt-1))
	jitter := 0.5 + rand.Float64()/2
	delay := time.Duration(backoff * jitter)

	if delay > max || delay <= 0 {
		// Capped, or overflowed past the float64 range.
		delay = max
	}
	return delay
}
