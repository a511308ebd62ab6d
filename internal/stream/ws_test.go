// ABOUTME: Tests for the WebSocket transport against a live httptest server.
// ABOUTME: Covers text frames, gzip binary inflation, and close behavior.

package stream

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// wsEchoServer upgrades the connection and runs the given handler with it.
func wsEchoServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWS_ReceivesTextFrames(t *testing.T) {
	srv := wsEchoServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"text":"hi"}`))
		// Wait for the client to go away.
		conn.ReadMessage()
	})

	conn, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	ev, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, `{"text":"hi"}`, string(ev.Data))
}

func TestWS_InflatesGzipBinaryFrames(t *testing.T) {
	payload := `{"text":"compressed hello"}`
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := wsEchoServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
		conn.ReadMessage()
	})

	conn, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	ev, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, payload, string(ev.Data))
}

func TestWS_CorruptGzipPassesThroughRaw(t *testing.T) {
	// Gzip magic followed by garbage: inflation fails, bytes pass through.
	corrupt := []byte{0x1f, 0x8b, 0xde, 0xad, 0xbe, 0xef}

	srv := wsEchoServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, corrupt)
		conn.ReadMessage()
	})

	conn, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	ev, err := conn.Receive()
	require.NoError(t, err)
	assert.Equal(t, corrupt, ev.Data)
}

func TestWS_SendsCustomHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer tok-456")

	conn, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), header)
	require.NoError(t, err)
	conn.Close()

	assert.Equal(t, "Bearer tok-456", gotAuth)
}

func TestWS_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestWS_CloseUnblocksReceive(t *testing.T) {
	srv := wsEchoServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage() // hold the connection open
	})

	conn, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conn.Receive()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	conn.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock after Close")
	}
}

func TestWS_ServerCloseEndsReceive(t *testing.T) {
	srv := wsEchoServer(t, func(conn *websocket.Conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
	})

	conn, err := (&WSTransport{}).Dial(testContext(t), wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Receive()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
