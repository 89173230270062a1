package room

import (
	"sync"
	"time"

	"boardsync/internal/move"
	"boardsync/internal/user"
)

// Room represents a live collaborative session. All moves ever accepted are
// kept twice: per user in usersMoves (that user's causal order) and merged
// in drawed (arrival order across all users, the order the canvas is
// replayed in). A user leaving keeps their moves in both.
type Room struct {
	ID string

	usersMoves map[string][]move.Move
	drawed     []move.Move
	users      map[string]user.User

	// ids of every move currently in drawed. Client-supplied ids get
	// replaced on collision, so an id identifies exactly one move and the
	// undo splice can never remove another user's entry.
	ids map[string]struct{}

	colorGenerator *user.ColorGenerator
	lastActive     time.Time
	createdAt      time.Time
	mu             sync.Mutex
}

func newRoom(id string) *Room {
	now := time.Now()
	return &Room{
		ID:             id,
		usersMoves:     make(map[string][]move.Move),
		drawed:         make([]move.Move, 0),
		users:          make(map[string]user.User),
		ids:            make(map[string]struct{}),
		colorGenerator: user.NewColorGenerator(),
		lastActive:     now,
		createdAt:      now,
	}
}

// Snapshot is a consistent copy of a room's full state, taken under the
// room lock, for hydrating a joining client.
type Snapshot struct {
	ID         string
	UsersMoves map[string][]move.Move
	Drawed     []move.Move
	Users      map[string]user.User
}

// addUser registers a participant and assigns a color. The capacity check
// and the insert happen under one lock hold, so concurrent joins can never
// push a room past maxUsers. Idempotent on repeated identical ids: the
// existing color survives, the name updates, and a member re-join is never
// rejected as full.
func (r *Room) addUser(userID, username string, maxUsers int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		if len(r.users) >= maxUsers {
			return ErrRoomFull
		}
		u = user.User{Color: r.colorGenerator.NextColor()}
		if _, moved := r.usersMoves[userID]; !moved {
			r.usersMoves[userID] = make([]move.Move, 0)
		}
	}
	u.Name = username
	r.users[userID] = u
	r.lastActive = time.Now()
	return nil
}

// removeUser deletes the participant but keeps their recorded moves.
// Reports whether the user was present and whether the room is now empty.
func (r *Room) removeUser(userID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return false, len(r.users) == 0
	}

	delete(r.users, userID)
	r.lastActive = time.Now()
	return true, len(r.users) == 0
}

// recordMove appends to the user's log and the merged drawed sequence
// atomically. The position in drawed is the serialization point: it defines
// what every client replays.
func (r *Room) recordMove(userID string, m move.Move) move.Move {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.ids[m.ID]; m.ID == "" || taken {
		m.ID = user.GenerateID()
	}
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}

	r.ids[m.ID] = struct{}{}
	r.usersMoves[userID] = append(r.usersMoves[userID], m)
	r.drawed = append(r.drawed, m)
	r.lastActive = time.Now()
	return m
}

// undoLast removes the user's most recent move from both logs. No-op when
// the user has no moves.
func (r *Room) undoLast(userID string) (move.Move, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	moves := r.usersMoves[userID]
	if len(moves) == 0 {
		return move.Move{}, false
	}

	last := moves[len(moves)-1]
	r.usersMoves[userID] = moves[:len(moves)-1]
	delete(r.ids, last.ID)

	for i := len(r.drawed) - 1; i >= 0; i-- {
		if r.drawed[i].ID == last.ID {
			r.drawed = append(r.drawed[:i], r.drawed[i+1:]...)
			break
		}
	}

	r.lastActive = time.Now()
	return last, true
}

// snapshot copies the room state for a joining client
func (r *Room) snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Snapshot{
		ID:         r.ID,
		UsersMoves: make(map[string][]move.Move, len(r.usersMoves)),
		Drawed:     make([]move.Move, len(r.drawed)),
		Users:      make(map[string]user.User, len(r.users)),
	}
	for id, moves := range r.usersMoves {
		cp := make([]move.Move, len(moves))
		copy(cp, moves)
		s.UsersMoves[id] = cp
	}
	copy(s.Drawed, r.drawed)
	for id, u := range r.users {
		s.Users[id] = u
	}
	return s
}

// UserCount returns the number of present participants
func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.users)
}

// MoveCount returns the length of the merged drawed sequence
func (r *Room) MoveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.drawed)
}
