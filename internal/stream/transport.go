// ABOUTME: Transport abstraction over the physical stream connection.
// ABOUTME: Defines the Dial/Receive/Close contract shared by SSE and WebSocket.

package stream

import (
	"context"
	"net/http"
	"time"
)

// Event is one inbound wire event before payload decoding.
type Event struct {
	// Type is the event type declared by the transport ("message" when the
	// server did not declare one). WebSocket frames carry no type.
	Type string

	// ID is the server-assigned event ID, when the transport supplies one.
	ID string

	// Data is the raw event body.
	Data []byte

	// RetryHint is a server-suggested reconnection delay (SSE "retry:" field).
	// Zero means no hint.
	RetryHint time.Duration
}

// Conn is a live physical connection. A Conn is owned by exactly one Session
// and is never shared.
type Conn interface {
	// Receive blocks until the next event arrives. It returns an error when
	// the connection is closed or broken; after an error the Conn is dead.
	Receive() (Event, error)

	// Close tears down the connection. Safe to call more than once and
	// concurrently with Receive, which it unblocks.
	Close() error
}

// Transport dials physical connections for a Session. The context bounds the
// dial only; the returned Conn outlives it.
type Transport interface {
	Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error)
}
