// ABOUTME: Session state machine for one logical, auto-reconnecting event stream.
// ABOUTME: Owns the live handle, heartbeat staleness check, and retry scheduling.

package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ErrStaleConnection reports a connection force-closed by the staleness check.
var ErrStaleConnection = errors.New("stream: connection stale")

// Session maintains a single logical event stream over a possibly-flaky
// physical connection. It reconnects on failure with jittered exponential
// backoff, detects silently-dead connections from traffic silence, and
// reports everything through its Callbacks.
//
// All methods are safe for concurrent use and safe to call from inside any
// callback.
type Session struct {
	endpoint string
	opts     Options
	cb       Callbacks
	logger   *slog.Logger

	// closed is the permanent-close latch. Once set, Connect is a no-op and
	// no further callbacks fire beyond those already in flight.
	closed atomic.Bool

	mu sync.Mutex
	// gen is bumped on every dial start and every teardown. Goroutines from
	// a superseded generation observe the mismatch and exit silently, so at
	// most one live handle exists per session at any instant.
	gen         uint64
	conn        Conn
	connecting  bool
	retryCount  int
	retryTimer  *time.Timer
	hbStop      chan struct{}
	lastMessage time.Time
	retryHint   time.Duration
}

// NewSession creates a Session for the given endpoint. It has no side
// effects; call Connect to open the stream.
func NewSession(endpoint string, cb Callbacks, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		endpoint: endpoint,
		opts:     opts,
		cb:       cb,
		logger:   opts.Logger.With("component", "stream", "endpoint", endpoint),
	}
}

// Endpoint returns the endpoint this session connects to.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Connect opens the stream. It returns immediately; the outcome arrives via
// OnOpen or OnError. Connect is an idempotent no-op while a connection or
// connection attempt is live, and always a no-op after Close. An explicit
// Connect resets the retry budget, so it also revives a session that
// exhausted its retries.
func (s *Session) Connect() {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	if s.connecting || s.conn != nil {
		s.mu.Unlock()
		return
	}
	s.cancelRetryLocked()
	s.retryCount = 0
	s.connecting = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	go s.dial(gen)
}

// Close permanently shuts the session down: pending retry and heartbeat
// timers are cancelled, the live handle (if any) is torn down, and all later
// Connect calls become no-ops. OnClose fires exactly once per actually-open
// handle; calling Close again is a harmless no-op.
func (s *Session) Close() {
	s.closed.Store(true)
	s.teardownUser()
}

// Disconnect drops the connection and any pending retry without the
// permanent flag, leaving the session reusable via Connect.
func (s *Session) Disconnect() {
	s.teardownUser()
}

// teardownUser is the shared caller-initiated teardown for Close/Disconnect.
func (s *Session) teardownUser() {
	s.mu.Lock()
	s.cancelRetryLocked()
	s.stopHeartbeatLocked()
	conn := s.conn
	s.conn = nil
	s.connecting = false
	s.gen++
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
		// Callbacks never fire synchronously from within Close.
		go s.invoke("OnClose", func() {
			if s.cb.OnClose != nil {
				s.cb.OnClose()
			}
		})
	}
}

// dial performs one connection attempt for the given generation.
func (s *Session) dial(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.DialTimeout)
	conn, err := s.opts.Transport.Dial(ctx, s.endpoint, s.opts.Header)
	cancel()

	s.mu.Lock()
	if s.closed.Load() || gen != s.gen {
		// Superseded by Close, Disconnect, or a newer Connect.
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	s.connecting = false

	if err != nil {
		rc := s.retryCount
		s.mu.Unlock()
		s.emitError(fmt.Errorf("dialing stream: %w", err), TransportConnecting, rc)
		s.scheduleReconnect()
		return
	}

	s.conn = conn
	s.retryCount = 0
	s.lastMessage = time.Now()
	stop := make(chan struct{})
	s.hbStop = stop
	s.mu.Unlock()

	s.logger.Debug("stream connected")
	go s.heartbeat(gen, stop)

	s.invoke("OnOpen", func() {
		if s.cb.OnOpen != nil {
			s.cb.OnOpen()
		}
	})

	s.readLoop(conn, gen)
}

// readLoop delivers events for one connection generation. It is the sole
// emitter of message callbacks for that generation, which preserves arrival
// order.
func (s *Session) readLoop(conn Conn, gen uint64) {
	for {
		ev, err := conn.Receive()
		if err != nil {
			s.mu.Lock()
			if s.closed.Load() || gen != s.gen {
				// Teardown already handled elsewhere (Close, staleness).
				s.mu.Unlock()
				return
			}
			s.conn = nil
			s.gen++
			s.stopHeartbeatLocked()
			rc := s.retryCount
			s.mu.Unlock()

			conn.Close()
			s.emitError(fmt.Errorf("receiving event: %w", err), TransportClosed, rc)
			s.scheduleReconnect()
			return
		}

		s.mu.Lock()
		if s.closed.Load() || gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.lastMessage = time.Now()
		if ev.RetryHint > 0 {
			s.retryHint = ev.RetryHint
		}
		s.mu.Unlock()

		payload := decodePayload(ev)
		if !payload.Decoded {
			s.logger.Debug("payload not JSON, passing through raw", "bytes", len(ev.Data))
		}
		s.invoke("OnMessage", func() {
			if s.cb.OnMessage != nil {
				s.cb.OnMessage(payload)
			}
		})
	}
}

// heartbeat watches for traffic silence on one connection generation. When
// the stream goes quiet past StaleThreshold it force-closes the handle and
// runs the same reconnect path as an explicit transport error, because the
// transport may never signal the failure itself.
func (s *Session) heartbeat(gen uint64, stop chan struct{}) {
	ticker := time.NewTicker(s.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed.Load() || gen != s.gen || s.conn == nil {
				s.mu.Unlock()
				return
			}
			idle := time.Since(s.lastMessage)
			if idle <= s.opts.StaleThreshold {
				s.mu.Unlock()
				continue
			}
			conn := s.conn
			s.conn = nil
			s.gen++
			s.hbStop = nil
			rc := s.retryCount
			s.mu.Unlock()

			conn.Close()
			s.emitError(fmt.Errorf("%w: no events for %s", ErrStaleConnection, idle.Round(time.Second)), TransportStale, rc)
			s.scheduleReconnect()
			return
		}
	}
}

// scheduleReconnect runs the bounded reconnection algorithm: bump the retry
// count, give up past the budget, otherwise announce the attempt and arm a
// one-shot timer for the computed delay.
func (s *Session) scheduleReconnect() {
	s.mu.Lock()
	if s.closed.Load() || s.opts.DisableReconnect {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.retryCount++
	rc := s.retryCount
	if rc > s.opts.MaxRetries {
		s.mu.Unlock()
		s.logger.Warn("retry budget exhausted", "attempts", s.opts.MaxRetries)
		s.invoke("OnReconnectExhausted", func() {
			if s.cb.OnReconnectExhausted != nil {
				s.cb.OnReconnectExhausted()
			}
		})
		return
	}
	base := s.opts.InitialRetryDelay
	if s.retryHint > 0 {
		base = s.retryHint
	}
	delay := retryDelay(base, s.opts.MaxRetryDelay, rc, !s.opts.ConstantBackoff)
	s.mu.Unlock()

	s.invoke("OnReconnectAttempt", func() {
		if s.cb.OnReconnectAttempt != nil {
			s.cb.OnReconnectAttempt(rc)
		}
	})

	s.mu.Lock()
	if s.closed.Load() || gen != s.gen {
		// Close, Disconnect, or a fresh Connect intervened mid-schedule.
		s.mu.Unlock()
		return
	}
	s.cancelRetryLocked()
	s.retryTimer = time.AfterFunc(delay, func() { s.redial(gen) })
	s.mu.Unlock()
}

// redial is the retry-timer target: like Connect, but without resetting the
// retry budget. sched is the generation current when the timer was armed; a
// mismatch means the timer fired concurrently with a teardown that could not
// stop it in time.
func (s *Session) redial(sched uint64) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	if sched != s.gen || s.connecting || s.conn != nil {
		s.mu.Unlock()
		return
	}
	s.retryTimer = nil
	s.connecting = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.dial(gen)
}

func (s *Session) cancelRetryLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

func (s *Session) stopHeartbeatLocked() {
	if s.hbStop != nil {
		close(s.hbStop)
		s.hbStop = nil
	}
}

// emitError builds the diagnostic context and delivers it through OnError.
func (s *Session) emitError(err error, state TransportState, retryCount int) {
	ec := ErrorContext{
		Endpoint:       s.endpoint,
		RetryCount:     retryCount,
		TransportState: state,
		Timestamp:      time.Now(),
		Err:            err,
	}
	s.logger.Debug("stream error",
		"state", string(state),
		"retry_count", retryCount,
		"error", err,
	)
	s.invoke("OnError", func() {
		if s.cb.OnError != nil {
			s.cb.OnError(ec)
		}
	})
}

// invoke runs a callback, containing any panic so one misbehaving handler
// cannot break the retry state machine.
func (s *Session) invoke(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("callback panicked", "callback", name, "panic", r)
		}
	}()
	fn()
}
