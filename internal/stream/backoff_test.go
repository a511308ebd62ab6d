// ABOUTME: Tests for reconnection delay computation.
// ABOUTME: Verifies jitter bounds, the max cap, and constant-backoff mode.

package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay_ExponentialBounds(t *testing.T) {
	initial := 100 * time.Millisecond
	max := 30 * time.Second

	for attempt := 1; attempt <= 5; attempt++ {
		backoff := initial << (attempt - 1)
		for i := 0; i < 100; i++ {
			delay := retryDelay(initial, max, attempt, true)
			assert.GreaterOrEqual(t, delay, backoff/2,
				"attempt %d: delay below jitter floor", attempt)
			assert.LessOrEqual(t, delay, backoff,
				"attempt %d: delay above unjittered backoff", attempt)
		}
	}
}

func TestRetryDelay_CappedAtMax(t *testing.T) {
	initial := 1 * time.Second
	max := 5 * time.Second

	// 2^(10-1) seconds is far past the cap even at minimum jitter.
	for i := 0; i < 100; i++ {
		delay := retryDelay(initial, max, 10, true)
		assert.LessOrEqual(t, delay, max)
	}
}

func TestRetryDelay_Constant(t *testing.T) {
	initial := 250 * time.Millisecond

	for attempt := 1; attempt <= 10; attempt++ {
		assert.Equal(t, initial, retryDelay(initial, time.Minute, attempt, false))
	}
}

func TestRetryDelay_OverflowFallsBackToMax(t *testing.T) {
	max := 30 * time.Second
	delay := retryDelay(time.Second, max, 200, true)
	assert.Equal(t, max, delay)
}
