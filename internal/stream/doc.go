// Package stream implements a resilient client for coven-gateway event streams.
//
// # Overview
//
// The stream package maintains one logical event stream over a possibly-flaky
// physical connection. It hides connection management (dialing, heartbeat
// staleness detection, and bounded reconnection with exponential backoff and
// jitter) behind a stable callback contract, so callers only ever see a
// clean lifecycle: open, messages, errors, close.
//
// # Session
//
// Session owns one logical stream:
//
//	session := stream.NewSession("http://gateway:8080/api/events", stream.Callbacks{
//	    OnMessage: func(p stream.Payload) { ... },
//	    OnError:   func(ec stream.ErrorContext) { ... },
//	}, stream.Options{})
//	session.Connect()
//	defer session.Close()
//
// Connect returns immediately; all progress is observed through callbacks.
// The session retries failed connections on its own until Close is called or
// the retry budget is exhausted, at which point OnReconnectExhausted fires
// once and the session goes dormant until an explicit Connect.
//
// # Lifecycle
//
// A session moves through these states:
//
//  1. Connect() starts a dial attempt (connecting)
//  2. A successful dial opens the stream: OnOpen fires, the retry count
//     resets, and the heartbeat starts (open)
//  3. A dial failure, transport error, or staleness timeout tears the
//     handle down: OnError fires and a retry is scheduled (reconnecting)
//  4. When the retry budget runs out, OnReconnectExhausted fires once and
//     the session goes dormant until an explicit Connect
//
// Close() is terminal: pending retries are cancelled, the live handle is torn
// down (OnClose fires once per actually-open handle), and later Connect calls
// become no-ops. Disconnect() drops the connection without the permanent flag.
//
// # Transports
//
// Two transports are provided. The default SSETransport consumes the
// gateway's text/event-stream HTTP endpoint. WSTransport connects over
// WebSocket and transparently inflates gzip-compressed binary frames. Both
// satisfy the Transport interface, which a test double can also implement.
//
// # Staleness
//
// Some transports die silently: the socket is gone but no error ever
// surfaces. The session infers liveness from traffic instead: when no event
// arrives within StaleThreshold, the handle is force-closed and the normal
// reconnect path runs, indistinguishable from an explicit transport error.
//
// # Delivery guarantees
//
// Message callbacks fire in arrival order within a single connection's
// lifetime. Across a reconnect there is no replay; delivery is at-most-once
// per connection generation. Payload decoding is best-effort: a message that
// fails to parse as JSON is delivered raw, never dropped.
package stream
