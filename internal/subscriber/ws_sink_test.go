package subscriber

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// dialTestSink upgrades a loopback connection into a WebSocketSink and
// returns the client side of it.
func dialTestSink(t *testing.T, sessionCap time.Duration) (*WebSocketSink, *websocket.Conn) {
	t.Helper()

	sinkCh := make(chan *WebSocketSink, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sinkCh <- NewWebSocketSink(conn, sessionCap, logger.NewNopLogger())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case sink := <-sinkCh:
		t.Cleanup(sink.Close)
		return sink, client
	case <-time.After(2 * time.Second):
		t.Fatal("server never produced a sink")
		return nil, nil
	}
}

func TestWebSocketSinkSend(t *testing.T) {
	sink, client := dialTestSink(t, 0)

	require.NoError(t, sink.Send(ConnectFrame()))
	require.NoError(t, sink.Send(Frame([]byte(`{"id":1}`))))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(first))

	_, second, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(second))
}

func TestWebSocketSinkFinishesWhenClientDisconnects(t *testing.T) {
	sink, client := dialTestSink(t, 0)

	done := make(chan struct{})
	sink.OnFinished(func() { close(done) })

	require.NoError(t, client.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not finish after client disconnect")
	}
	assert.ErrorIs(t, sink.Send([]byte("[]")), ErrSinkClosed)
}

func TestWebSocketSinkSessionCap(t *testing.T) {
	sink, client := dialTestSink(t, 50*time.Millisecond)

	done := make(chan struct{})
	sink.OnFinished(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session cap did not finish the sink")
	}

	// The server side sent a close frame; the client read loop surfaces it.
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := client.ReadMessage(); err != nil {
			break
		}
	}
}

func TestWebSocketSinkFinishHooksRunOnce(t *testing.T) {
	sink, _ := dialTestSink(t, 0)

	var calls atomic.Int32
	sink.OnFinished(func() { calls.Add(1) })

	sink.Close()
	sink.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWebSocketSinkLateHookRunsImmediately(t *testing.T) {
	sink, _ := dialTestSink(t, 0)
	sink.Close()

	called := false
	sink.OnFinished(func() { called = true })
	assert.True(t, called)
}
