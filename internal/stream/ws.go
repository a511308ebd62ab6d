// ABOUTME: WebSocket transport with keepalive pings and gzip frame inflation.
// ABOUTME: Binary frames carrying the gzip magic are decompressed best-effort.

package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
	wsWriteTimeout          = 5 * time.Second
)

// WSTransport dials WebSocket endpoints (ws:// or wss:// URLs). Each
// connection runs a ping loop so intermediaries keep the socket alive; pongs
// are handled by the underlying library and do not count as traffic for the
// session's staleness check.
type WSTransport struct {
	// HandshakeTimeout bounds the WebSocket handshake (default 10s).
	HandshakeTimeout time.Duration

	// PingInterval is how often keepalive pings are written (default 30s).
	PingInterval time.Duration
}

// Dial opens a WebSocket connection to the endpoint.
func (t *WSTransport) Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error) {
	handshake := t.HandshakeTimeout
	if handshake <= 0 {
		handshake = defaultHandshakeTimeout
	}
	dialer := &websocket.Dialer{HandshakeTimeout: handshake}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}

	ping := t.PingInterval
	if ping <= 0 {
		ping = defaultPingInterval
	}

	c := &wsConn{
		conn: conn,
		stop: make(chan struct{}),
	}
	go c.pingLoop(ping)
	return c, nil
}

// wsConn is one live WebSocket connection.
type wsConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex // serialises control writes (pings, close)
	stop    chan struct{}

	closeOnce sync.Once
}

// Receive reads the next data frame. Binary frames starting with the gzip
// magic are inflated; if inflation fails the raw bytes pass through so the
// message is not lost.
func (c *wsConn) Receive() (Event, error) {
	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return Event{}, err
	}

	if msgType == websocket.BinaryMessage && isGzipped(data) {
		if inflated, err := gunzip(data); err == nil {
			data = inflated
		}
	}

	return Event{Data: data}, nil
}

// Close stops the ping loop and closes the connection, unblocking Receive.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.writeMu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteTimeout))
		c.writeMu.Unlock()
		c.conn.Close()
	})
	return nil
}

// pingLoop writes keepalive pings until the connection closes.
func (c *wsConn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// isGzipped checks for the gzip magic number.
func isGzipped(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
