// ABOUTME: Callback contract and error context delivered to Session callers.
// ABOUTME: All callbacks are optional and fire from session-owned goroutines.

package stream

import "time"

// TransportState describes what the session knew about the connection when an
// error was reported.
type TransportState string

const (
	// TransportConnecting means the dial itself failed.
	TransportConnecting TransportState = "connecting"

	// TransportClosed means an established connection reported an error and
	// was torn down.
	TransportClosed TransportState = "closed"

	// TransportStale means the connection was force-closed because no traffic
	// arrived within the staleness threshold.
	TransportStale TransportState = "stale"
)

// ErrorContext carries diagnostic context for OnError.
type ErrorContext struct {
	Endpoint       string
	RetryCount     int
	TransportState TransportState
	Timestamp      time.Time
	Err            error
}

// Callbacks holds the optional event handlers for a Session. Handlers are
// invoked from session-owned goroutines, never synchronously from within
// Connect or Close, and message handlers fire in arrival order. A panicking
// handler is recovered and logged; it cannot break the session's state
// machine. Calling Close or Connect from inside any handler is safe.
type Callbacks struct {
	// OnOpen fires after each successful connection, including reconnects.
	OnOpen func()

	// OnMessage fires once per inbound event with the best-effort-decoded
	// payload.
	OnMessage func(Payload)

	// OnError fires on dial failures, transport errors, and staleness
	// timeouts. Errors here are informational; the session handles recovery
	// itself.
	OnError func(ErrorContext)

	// OnClose fires exactly once per open handle torn down by Close or
	// Disconnect. It does not fire for error-path teardowns.
	OnClose func()

	// OnReconnectAttempt fires before each scheduled reconnect with the
	// 1-based attempt number.
	OnReconnectAttempt func(attempt int)

	// OnReconnectExhausted fires once when the retry budget runs out. The
	// session then goes dormant until an explicit Connect.
	OnReconnectExhausted func()
}
