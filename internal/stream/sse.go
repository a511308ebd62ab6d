// ABOUTME: Server-Sent Events transport over a streaming HTTP GET.
// ABOUTME: Parses text/event-stream fields: event, data, id, retry, comments.

package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	contentTypeEventStream = "text/event-stream"

	// maxEventSize bounds a single SSE line; oversized events fail the
	// connection rather than silently truncating.
	maxEventSize = 1 << 20
)

// SSETransport dials text/event-stream HTTP endpoints. This is the default
// transport: it speaks the same protocol the gateway's /api/send and event
// stream endpoints serve to browser EventSource clients.
//
// The zero value is usable and shares a streaming-friendly HTTP client.
type SSETransport struct {
	// Client issues the streaming requests. When nil, a shared client with
	// no whole-request timeout is used (a deadline on the body would kill
	// long-lived streams).
	Client *http.Client
}

// NewSSETransport returns an SSETransport using the shared streaming client.
func NewSSETransport() *SSETransport {
	return &SSETransport{}
}

// sseClient deliberately has no Timeout: the response body is a long-lived
// stream. The handshake is bounded by the dial context instead.
var sseClient = &http.Client{}

// Dial opens the streaming GET request. The context bounds the handshake
// only; the returned Conn keeps the body open until Close.
func (t *SSETransport) Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error) {
	client := t.Client
	if client == nil {
		client = sseClient
	}

	// The request context must outlive the dial context, or cancelling the
	// dial deadline would tear down the live stream body.
	reqCtx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", contentTypeEventStream)
	req.Header.Set("Cache-Control", "no-cache")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	// Propagate dial-context cancellation into the in-flight handshake.
	handshakeDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-handshakeDone:
		}
	}()

	resp, err := client.Do(req)
	close(handshakeDone)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, contentTypeEventStream) {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	return &sseConn{
		body:    resp.Body,
		cancel:  cancel,
		scanner: scanner,
	}, nil
}

// sseConn is one live event-stream response body.
type sseConn struct {
	body    io.ReadCloser
	cancel  context.CancelFunc
	scanner *bufio.Scanner

	closeOnce sync.Once
}

// Receive parses lines until a blank line dispatches the accumulated event.
// Comment lines keep the connection warm but carry no event; events without
// data are ignored per the event-stream format.
func (c *sseConn) Receive() (Event, error) {
	var (
		eventType string
		eventID   string
		dataLines []string
		retryHint time.Duration
	)

	for c.scanner.Scan() {
		line := strings.TrimSuffix(c.scanner.Text(), "\r")

		// Blank line dispatches the pending event.
		if line == "" {
			if len(dataLines) == 0 {
				eventType = ""
				eventID = ""
				continue
			}
			if eventType == "" {
				eventType = "message"
			}
			return Event{
				Type:      eventType,
				ID:        eventID,
				Data:      []byte(strings.Join(dataLines, "\n")),
				RetryHint: retryHint,
			}, nil
		}

		switch field, value := splitSSEField(line); field {
		case ":":
			// Keepalive comment.
		case "event":
			eventType = value
		case "data":
			dataLines = append(dataLines, value)
		case "id":
			eventID = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				retryHint = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := c.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Close cancels the request context and closes the body, unblocking Receive.
func (c *sseConn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.body.Close()
	})
	return nil
}

// splitSSEField splits "field: value", trimming the single optional space
// after the colon. A line starting with ':' is a comment.
func splitSSEField(line string) (field, value string) {
	if strings.HasPrefix(line, ":") {
		return ":", ""
	}
	field, value, found := strings.Cut(line, ":")
	if !found {
		// A field name with no colon has an empty value.
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
