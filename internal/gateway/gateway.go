package gateway

import (
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"boardsync/internal/chat"
	"boardsync/internal/middleware"
	"boardsync/internal/move"
	"boardsync/internal/room"

	"github.com/gorilla/websocket"
)

// Gateway binds the room registry to WebSocket sessions. It owns the
// per-room peer sets; every fan-out for a room happens under that room's
// peer lock, so broadcasts leave in the exact order the registry accepted
// the mutations.
type Gateway struct {
	registry  *room.Registry
	validator *move.Validator
	config    *middleware.RateLimit
	ipLimiter *middleware.IPRateLimit
	chat      *chat.Sequencer

	peers map[string]*roomPeers
	mu    sync.RWMutex

	upgrader websocket.Upgrader
}

// roomPeers is the connection set of one room. Its lock is the room's
// serialization point for record+broadcast.
type roomPeers struct {
	sessions map[string]*Session
	mu       sync.Mutex
}

func New(registry *room.Registry, validator *move.Validator, config *middleware.RateLimit, ipLimiter *middleware.IPRateLimit) *Gateway {
	return &Gateway{
		registry:  registry,
		validator: validator,
		config:    config,
		ipLimiter: ipLimiter,
		chat:      chat.NewSequencer(),
		peers:     make(map[string]*roomPeers),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// checkOrigin allows any origin when DOMAINS is unset (development),
// otherwise only the listed ones
func checkOrigin(r *http.Request) bool {
	domains := os.Getenv("DOMAINS")
	if domains == "" {
		return true
	}

	origin := r.Header.Get("Origin")
	for _, allowed := range strings.Split(domains, ",") {
		if origin == strings.TrimSpace(allowed) {
			return true
		}
	}
	return false
}

// GetClientIP: extracts the client IP from the request.
// Uses RemoteAddr only - cannot be spoofed by client.
func GetClientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx] // Remove port
	}
	return ip
}

// ServeWS upgrades HTTP to WebSocket and runs the session until the
// connection dies
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	if !g.ipLimiter.Allow(clientIP) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP)
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error: Failed to upgrade connection - %v", err)
		return
	}

	s := newSession(g, conn)

	go s.writePump()
	s.readPump()
}

// getPeers returns the peer set for a room, creating it if needed
func (g *Gateway) getPeers(roomID string) *roomPeers {
	g.mu.Lock()
	defer g.mu.Unlock()

	rp, ok := g.peers[roomID]
	if !ok {
		rp = &roomPeers{sessions: make(map[string]*Session)}
		g.peers[roomID] = rp
	}
	return rp
}

// dropPeers removes a room's peer set once it is empty
func (g *Gateway) dropPeers(roomID string, rp *roomPeers) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.peers[roomID] == rp {
		delete(g.peers, roomID)
	}
}

// enqueueOthers pushes a payload to every peer except the excluded user.
// Caller holds rp.mu. Sends never block: a peer with a full send buffer is
// dead weight and gets dropped, like a failed write.
func (rp *roomPeers) enqueueOthers(excludeUserID string, payload []byte) {
	for id, peer := range rp.sessions {
		if id == excludeUserID {
			continue
		}
		peer.enqueue(payload)
	}
}

// broadcast sends a payload to every peer in the room except the excluded
// user, under the room's fan-out lock
func (g *Gateway) broadcast(roomID, excludeUserID string, payload []byte) {
	g.mu.RLock()
	rp, ok := g.peers[roomID]
	g.mu.RUnlock()
	if !ok {
		return
	}

	rp.mu.Lock()
	rp.enqueueOthers(excludeUserID, payload)
	rp.mu.Unlock()
}
