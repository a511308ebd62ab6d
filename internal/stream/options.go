// ABOUTME: Session tuning options with documented defaults.
// ABOUTME: The zero value of every field selects the default behavior.

package stream

import (
	"log/slog"
	"net/http"
	"time"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultMaxRetries        = 5
	DefaultInitialRetryDelay = 1 * time.Second
	DefaultMaxRetryDelay     = 30 * time.Second
	DefaultDialTimeout       = 10 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultStaleThreshold    = 60 * time.Second
)

// Options tunes a Session. The zero value is usable: it selects the SSE
// transport with five retries, 1s→30s exponential backoff, and a 30s/60s
// heartbeat. To disable retries entirely set DisableReconnect.
type Options struct {
	// MaxRetries bounds consecutive reconnect attempts since the last
	// successful open. Zero selects the default of 5; use DisableReconnect
	// to turn reconnection off.
	MaxRetries int

	// InitialRetryDelay is the base reconnect delay (default 1s).
	InitialRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff (default 30s).
	MaxRetryDelay time.Duration

	// ConstantBackoff disables exponential growth: every retry waits
	// InitialRetryDelay.
	ConstantBackoff bool

	// DisableReconnect turns off automatic reconnection. Errors still
	// surface through OnError; the session simply stays down.
	DisableReconnect bool

	// DialTimeout bounds each connection attempt (default 10s).
	DialTimeout time.Duration

	// HeartbeatInterval is how often the staleness check runs (default 30s).
	HeartbeatInterval time.Duration

	// StaleThreshold is the silence duration after which a nominally-open
	// connection is treated as dead (default 60s).
	StaleThreshold time.Duration

	// Header holds extra headers sent on every dial, e.g. Authorization.
	// The session treats them as opaque.
	Header http.Header

	// Transport dials physical connections. Defaults to an SSETransport.
	Transport Transport

	// Logger receives session diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults returns a copy with zero fields resolved to their defaults.
func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.InitialRetryDelay <= 0 {
		o.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if o.MaxRetryDelay <= 0 {
		o.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.StaleThreshold <= 0 {
		o.StaleThreshold = DefaultStaleThreshold
	}
	if o.Transport == nil {
		o.Transport = NewSSETransport()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
