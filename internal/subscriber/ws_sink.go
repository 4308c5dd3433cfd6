package subscriber

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

const (
	// writeWait bounds one write to the peer.
	writeWait = 10 * time.Second
	// pongWait bounds the silence between two pongs from the peer.
	pongWait = 60 * time.Second
	// pingPeriod is the ping interval. Must be below pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames. Clients only receive here, so
	// anything beyond a control-sized payload is a protocol violation.
	maxMessageSize = 512
	// sendBuffer is the per-connection outbound queue. A client that falls
	// this far behind is dropped.
	sendBuffer = 256
)

// WebSocketSink pushes frames over one websocket connection. It runs the
// usual two pumps: the write pump owns all writes including pings, the read
// pump consumes pongs and notices disconnects. Every session carries a hard
// cap; when it fires the sink finishes regardless of activity.
type WebSocketSink struct {
	conn *websocket.Conn
	send chan []byte
	log  *logger.Logger

	mu    sync.Mutex
	fin   finisher
	timer *time.Timer
}

// NewWebSocketSink takes ownership of conn and starts the pumps. sessionCap
// is the hard session ceiling; zero disables it.
func NewWebSocketSink(conn *websocket.Conn, sessionCap time.Duration, log *logger.Logger) *WebSocketSink {
	s := &WebSocketSink{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
		fin:  newFinisher(),
	}
	if sessionCap > 0 {
		s.timer = time.AfterFunc(sessionCap, s.Close)
	}
	go s.writePump()
	go s.readPump()
	return s
}

func (s *WebSocketSink) Send(frame []byte) error {
	s.mu.Lock()
	if s.fin.finished() {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.mu.Unlock()

	select {
	case s.send <- frame:
		return nil
	default:
		// The peer stopped draining; cut it loose rather than buffer without
		// bound.
		s.log.Warn("websocket send buffer full, dropping connection")
		s.Close()
		return ErrSinkClosed
	}
}

func (s *WebSocketSink) Close() {
	s.mu.Lock()
	hooks := s.fin.finish()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	runHooks(hooks)
}

func (s *WebSocketSink) OnFinished(fn func()) {
	s.mu.Lock()
	queued := s.fin.addHook(fn)
	s.mu.Unlock()
	if !queued {
		fn()
	}
}

// Wait blocks until the sink finishes or ctx ends, closing the sink on the
// latter.
func (s *WebSocketSink) Wait(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.Close()
	case <-s.fin.done:
	}
}

func (s *WebSocketSink) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.fin.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (s *WebSocketSink) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// This transport is push-only; inbound data frames are drained and
	// dropped until the peer goes away.
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
