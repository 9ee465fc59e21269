package ws

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendBuffer bounds the per-session outbound queue. A session that cannot
// drain this many events is dead weight and gets dropped.
const sendBuffer = 64

const writeWait = 10 * time.Second

// Session is one live websocket connection bound to an authenticated user.
// Events are enqueued on send and written by a single pump goroutine, which
// gives per-connection delivery order for free.
type Session struct {
	ID          string
	UserID      int
	Username    string
	IP          string
	ConnectedAt time.Time

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// NewSession wraps an upgraded connection. conn may be nil in tests; the
// write pump is only started by the connection handler.
func NewSession(conn *websocket.Conn, userID int, username, ip string) *Session {
	return &Session{
		ID:          newConnID(),
		UserID:      userID,
		Username:    username,
		IP:          ip,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump without blocking. It reports false
// when the session is closed or its buffer is full.
func (s *Session) enqueue(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// writePump drains the send queue onto the wire. It exits when the session
// closes or a write fails; the read loop notices the closed conn and triggers
// deregistration.
func (s *Session) writePump() {
	for {
		select {
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// close stops the write pump and closes the transport. Safe to call more
// than once.
func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
