// Package protocol defines the wire contract between the whiteboard client
// and this server. Event names and payload fields are the compatibility
// surface and must not change.
package protocol

import (
	"encoding/json"
	"fmt"

	"boardsync/internal/move"
	"boardsync/internal/room"
	"boardsync/internal/user"
)

// Client → server events
const (
	EventCheckRoom  = "check_room"
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room"
	EventJoinedRoom = "joined_room"
	EventDraw       = "draw"
	EventUndo       = "undo"
	EventMouseMove  = "mouse_move"
	EventSendMsg    = "send_msg"
	EventLeaveRoom  = "leave_room"
)

// Server → client events
const (
	EventRoomExists       = "room_exists"
	EventCreated          = "created"
	EventJoined           = "joined"
	EventRoom             = "room"
	EventYourMove         = "your_move"
	EventUserDraw         = "user_draw"
	EventUserUndo         = "user_undo"
	EventMouseMoved       = "mouse_moved"
	EventNewUser          = "new_user"
	EventUserDisconnected = "user_disconnected"
	EventNewMsg           = "new_msg"
)

// Envelope wraps every message on the wire
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CheckRoom payload
type CheckRoom struct {
	RoomID string `json:"roomId"`
}

// CreateRoom payload
type CreateRoom struct {
	Username string `json:"username"`
}

// JoinRoom payload
type JoinRoom struct {
	BoardID  string `json:"boardId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// MouseMove payload, ephemeral cursor position
type MouseMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SendMsg payload
type SendMsg struct {
	Msg string `json:"msg"`
}

// RoomExists response
type RoomExists struct {
	Exists bool `json:"exists"`
}

// Created response carries the freshly minted room id
type Created struct {
	RoomID string `json:"roomId"`
}

// Joined reports the outcome of a join attempt to the requester only
type Joined struct {
	RoomID string `json:"roomId"`
	Failed bool   `json:"failed,omitempty"`
}

// RoomSnapshot is the private state-hydration payload for a joining client.
// UsersMoves and Users travel both structured and as JSON-encoded strings:
// the client keeps them in Map containers, which do not survive plain JSON,
// so it re-parses the string forms on receipt.
type RoomSnapshot struct {
	Room              RoomState `json:"room"`
	UsersMovesToParse string    `json:"usersMovesToParse"`
	UsersToParse      string    `json:"usersToParse"`
}

// RoomState is the structured room as transmitted inside a snapshot
type RoomState struct {
	ID     string      `json:"id"`
	Drawed []move.Move `json:"drawed"`
}

// UserDraw broadcasts a recorded move with its author
type UserDraw struct {
	Move   move.Move `json:"move"`
	UserID string    `json:"userId"`
}

// UserUndo carries only the author; receivers undo that user's latest move
// from their own mirrored per-user stacks. Order fidelity with the server
// is what keeps this sound.
type UserUndo struct {
	UserID string `json:"userId"`
}

// MouseMoved broadcasts a cursor position
type MouseMoved struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID string  `json:"userId"`
}

// NewUser announces a join to the rest of the room
type NewUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// UserDisconnected announces a leave
type UserDisconnected struct {
	UserID string `json:"userId"`
}

// NewMsg relays a chat message. ID is the room-monotonic sequence number
// used client-side for ordering and dedup.
type NewMsg struct {
	UserID string `json:"userId"`
	Msg    string `json:"msg"`
	ID     int64  `json:"id"`
}

// Encode wraps a payload in an envelope and marshals it
func Encode(event string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode parses an envelope from the wire
func Decode(msg []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("missing event name")
	}
	return &env, nil
}

// EncodeSnapshot builds the room payload from a registry snapshot,
// serializing the keyed maps for the client to re-parse.
func EncodeSnapshot(s *room.Snapshot) (*RoomSnapshot, error) {
	usersMoves, err := json.Marshal(s.UsersMoves)
	if err != nil {
		return nil, fmt.Errorf("marshal usersMoves: %w", err)
	}
	users, err := json.Marshal(s.Users)
	if err != nil {
		return nil, fmt.Errorf("marshal users: %w", err)
	}

	return &RoomSnapshot{
		Room: RoomState{
			ID:     s.ID,
			Drawed: s.Drawed,
		},
		UsersMovesToParse: string(usersMoves),
		UsersToParse:      string(users),
	}, nil
}

// DecodeSnapshotMaps re-parses the string-encoded maps of a room payload,
// the same operation the client performs on receipt.
func DecodeSnapshotMaps(rs *RoomSnapshot) (map[string][]move.Move, map[string]user.User, error) {
	usersMoves := make(map[string][]move.Move)
	if err := json.Unmarshal([]byte(rs.UsersMovesToParse), &usersMoves); err != nil {
		return nil, nil, fmt.Errorf("unmarshal usersMoves: %w", err)
	}
	users := make(map[string]user.User)
	if err := json.Unmarshal([]byte(rs.UsersToParse), &users); err != nil {
		return nil, nil, fmt.Errorf("unmarshal users: %w", err)
	}
	return usersMoves, users, nil
}
