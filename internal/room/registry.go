package room

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"boardsync/internal/move"
)

var (
	ErrNotFound  = errors.New("room not found")
	ErrRoomFull  = errors.New("room is full")
	ErrTooMany   = errors.New("server at maximum room capacity")
	ErrNotMember = errors.New("user not in room")
)

// Registry owns every live room. Mutating operations on one room serialize
// on that room's lock; operations on different rooms never block each other.
type Registry struct {
	rooms       map[string]*Room
	maxRooms    int
	maxRoomSize int
	mu          sync.RWMutex
}

func NewRegistry(maxRooms, maxRoomSize int) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		maxRooms:    maxRooms,
		maxRoomSize: maxRoomSize,
	}
}

// generateRoomID mints a short user-facing room code
func generateRoomID() string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Create mints a fresh collision-checked room id, creates the room and
// registers the creating user.
func (reg *Registry) Create(userID, username string) (string, error) {
	reg.mu.Lock()

	if len(reg.rooms) >= reg.maxRooms {
		reg.mu.Unlock()
		return "", ErrTooMany
	}

	id := generateRoomID()
	for reg.rooms[id] != nil {
		id = generateRoomID()
	}

	r := newRoom(id)
	reg.rooms[id] = r
	reg.mu.Unlock()

	if err := r.addUser(userID, username, reg.maxRoomSize); err != nil {
		reg.mu.Lock()
		delete(reg.rooms, id)
		reg.mu.Unlock()
		return "", err
	}
	return id, nil
}

// Exists: pure lookup
func (reg *Registry) Exists(roomID string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	_, ok := reg.rooms[roomID]
	return ok
}

// get returns the live room, if any
func (reg *Registry) get(roomID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	r, ok := reg.rooms[roomID]
	return r, ok
}

// Join registers the user and returns a full snapshot for state hydration.
// A missing room yields ErrNotFound with no side effects.
func (reg *Registry) Join(roomID, userID, username string) (*Snapshot, error) {
	r, ok := reg.get(roomID)
	if !ok {
		return nil, ErrNotFound
	}

	if err := r.addUser(userID, username, reg.maxRoomSize); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// RecordMove appends the move to the user's log and the room's drawed
// sequence, assigning id and timestamp if absent. The returned move is the
// canonical recorded form.
func (reg *Registry) RecordMove(roomID, userID string, m move.Move) (move.Move, error) {
	r, ok := reg.get(roomID)
	if !ok {
		return move.Move{}, ErrNotFound
	}

	r.mu.Lock()
	_, member := r.users[userID]
	r.mu.Unlock()
	if !member {
		return move.Move{}, ErrNotMember
	}

	return r.recordMove(userID, m), nil
}

// UndoLast removes the user's most recent move. The bool reports whether
// anything was removed; an empty log is a no-op, not an error.
func (reg *Registry) UndoLast(roomID, userID string) (move.Move, bool) {
	r, ok := reg.get(roomID)
	if !ok {
		return move.Move{}, false
	}
	return r.undoLast(userID)
}

// Leave removes the user from the room's participant set; recorded moves
// stay. The room is destroyed when the last user leaves. Idempotent: a
// second Leave for the same user removes nothing and never double-destroys.
func (reg *Registry) Leave(roomID, userID string) (removed, destroyed bool) {
	r, ok := reg.get(roomID)
	if !ok {
		return false, false
	}

	removed, empty := r.removeUser(userID)
	if removed && empty {
		reg.mu.Lock()
		if reg.rooms[roomID] == r {
			delete(reg.rooms, roomID)
			destroyed = true
		}
		reg.mu.Unlock()
	}
	return removed, destroyed
}

// Count returns the number of live rooms
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// UserCount returns the number of participants across all rooms
func (reg *Registry) UserCount() int {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	n := 0
	for _, r := range rooms {
		n += r.UserCount()
	}
	return n
}

// Cleanup removes rooms that somehow linger after their users are gone.
// Normal destruction happens on the last Leave; this is the backstop sweep.
func (reg *Registry) Cleanup(maxIdle time.Duration) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := time.Now()
	for id, r := range reg.rooms {
		r.mu.Lock()
		stale := len(r.users) == 0 && now.Sub(r.lastActive) > maxIdle
		r.mu.Unlock()

		if stale {
			delete(reg.rooms, id)
		}
	}
}
