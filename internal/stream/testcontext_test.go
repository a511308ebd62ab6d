// ABOUTME: Test helper providing a per-test context canceled on cleanup.
// ABOUTME: Stands in for t.Context(), which requires Go 1.24.

package stream

import (
	"context"
	"testing"
)

// testContext returns a context canceled when the test finishes,
// equivalent to t.Context() on newer Go versions.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
