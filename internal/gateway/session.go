package gateway

import (
	"log"
	"sync"
	"time"

	"boardsync/internal/protocol"
	"boardsync/internal/user"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // Send pings at 90% of pong deadline

	sendBufferSize = 256

	// Cursor updates throttled to ~30fps
	cursorMinInterval = 33 * time.Millisecond
)

type sessionState int

const (
	stateUnbound sessionState = iota
	stateBound
	stateClosed
)

// Session is one client connection. It starts unbound (no room
// association), becomes bound by create_room or join_room, and closes on
// leave_room or transport loss. Only the write pump touches the socket for
// outbound traffic.
type Session struct {
	gw      *Gateway
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	// id stands in for the user when the client does not supply one,
	// like a socket id would
	id string

	state      sessionState
	roomID     string
	userID     string
	lastCursor time.Time
	mu         sync.Mutex
}

func newSession(g *Gateway, conn *websocket.Conn) *Session {
	return &Session{
		gw:      g,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(g.config.MessagesPerSecond), g.config.BurstSize),
		id:      user.GenerateID(),
	}
}

// enqueue pushes an outbound payload without blocking. A full buffer means
// the client stopped reading; the connection gets torn down.
func (s *Session) enqueue(payload []byte) {
	select {
	case s.send <- payload:
	default:
		log.Printf("Send buffer full for user %s, dropping connection", s.id)
		s.closeConn()
	}
}

// sendEvent marshals and enqueues an event for this session
func (s *Session) sendEvent(event string, data interface{}) {
	payload, err := protocol.Encode(event, data)
	if err != nil {
		log.Printf("Error: Failed to marshal %s - %v", event, err)
		return
	}
	s.enqueue(payload)
}

func (s *Session) closeConn() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// bind associates the session with a room and user
func (s *Session) bind(roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = stateBound
	s.roomID = roomID
	s.userID = userID
}

// currentState returns the state and binding under the session lock
func (s *Session) currentState() (sessionState, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state, s.roomID, s.userID
}

// teardown releases the session's room membership exactly once. Safe to
// call from both leave_room handling and transport disconnect: duplicate
// signals remove the user once and never double-broadcast.
func (s *Session) teardown() {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	wasBound := s.state == stateBound
	roomID, userID := s.roomID, s.userID
	s.state = stateClosed
	s.mu.Unlock()

	if !wasBound {
		return
	}

	g := s.gw
	g.mu.RLock()
	rp, ok := g.peers[roomID]
	g.mu.RUnlock()
	if !ok {
		if _, destroyed := g.registry.Leave(roomID, userID); destroyed {
			g.chat.Forget(roomID)
		}
		return
	}

	rp.mu.Lock()
	if rp.sessions[userID] == s {
		delete(rp.sessions, userID)
	}
	removed, destroyed := g.registry.Leave(roomID, userID)
	if removed {
		if payload, err := protocol.Encode(protocol.EventUserDisconnected, protocol.UserDisconnected{UserID: userID}); err == nil {
			rp.enqueueOthers(userID, payload)
		}
	}
	empty := len(rp.sessions) == 0
	rp.mu.Unlock()

	if destroyed {
		g.chat.Forget(roomID)
	}
	if empty {
		g.dropPeers(roomID, rp)
	}
}

// readPump reads events off the socket until the connection dies
func (s *Session) readPump() {
	defer func() {
		s.teardown()
		s.closeConn()
	}()

	s.conn.SetReadLimit(s.gw.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !s.gw.config.ValidateMessageSize(len(msg)) {
			log.Printf("Message too large from user %s: %d bytes", s.id, len(msg))
			continue
		}

		if !s.limiter.Allow() {
			log.Printf("Rate limit exceeded for user: %s", s.id)
			continue
		}

		if err := s.handleEvent(msg); err != nil {
			log.Printf("Error handling message from user %s: %v", s.id, err)
			continue
		}
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.closeConn()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
