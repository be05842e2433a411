package realtime

import (
	"errors"
	"sync"
	"time"

	"community-app/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	errSessionClosed  = errors.New("session closed")
	errSendBufferFull = errors.New("send buffer full")
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Session is one live client connection. Events from it are processed in
// arrival order on its read goroutine; frames to it go through the buffered
// send channel drained by the write goroutine.
type Session struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

func (s *Session) SessionID() string {
	return s.id
}

// TrySend queues a frame without blocking. A full buffer drops the frame
// rather than stalling the broadcasting goroutine.
func (s *Session) TrySend(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
	s.conn.Close()
}

// ReadPump reads frames from the connection and hands them to the router
// until the connection dies. It owns disconnect cleanup: by the time it
// returns, the session has left every room and no further events for it are
// processed.
func (s *Session) ReadPump(router *Router) {
	defer func() {
		router.Disconnect(s)
		s.close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on session %s: %v", s.id, err)
			}
			return
		}
		router.Dispatch(s, data)
	}
}

// WritePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error on session %s: %v", s.id, err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
