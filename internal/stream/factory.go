// ABOUTME: Convenience constructor wiring default diagnostic callbacks around a Session.
// ABOUTME: Logs lifecycle events via slog and forwards payloads to one handler.

package stream

import (
	"github.com/google/uuid"
)

// Dial constructs a Session with structured-logging diagnostic callbacks,
// forwards every payload to onMessage, and connects immediately. It is pure
// composition over NewSession for call sites that only care about messages:
//
//	session := stream.Dial(url, func(p stream.Payload) { ... }, stream.Options{})
//	defer session.Close()
//
// Lifecycle events (open, errors, reconnect attempts, exhaustion, close) are
// logged with a per-session correlation ID on opts.Logger.
func Dial(endpoint string, onMessage func(Payload), opts Options) *Session {
	opts = opts.withDefaults()
	logger := opts.Logger.With(
		"component", "stream",
		"session_id", uuid.New().String(),
		"endpoint", endpoint,
	)
	opts.Logger = logger

	cb := Callbacks{
		OnMessage: onMessage,
		OnOpen: func() {
			logger.Info("stream open")
		},
		OnError: func(ec ErrorContext) {
			logger.Warn("stream error",
				"state", string(ec.TransportState),
				"retry_count", ec.RetryCount,
				"error", ec.Err,
			)
		},
		OnReconnectAttempt: func(attempt int) {
			logger.Info("reconnecting", "attempt", attempt)
		},
		OnReconnectExhausted: func() {
			logger.Error("reconnect attempts exhausted, stream dormant")
		},
		OnClose: func() {
			logger.Info("stream closed")
		},
	}

	session := NewSession(endpoint, cb, opts)
	session.Connect()
	return session
}
