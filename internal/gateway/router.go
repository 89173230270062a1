package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"boardsync/internal/chat"
	"boardsync/internal/move"
	"boardsync/internal/protocol"
	"boardsync/internal/room"
)

// handleEvent routes one inbound envelope according to the session state.
// Unbound sessions may only check, create or join; everything mutating
// requires a binding. Out-of-state events are ignored with a log line.
func (s *Session) handleEvent(msg []byte) error {
	env, err := protocol.Decode(msg)
	if err != nil {
		return err
	}

	state, _, _ := s.currentState()

	switch state {
	case stateUnbound:
		switch env.Event {
		case protocol.EventCheckRoom:
			return s.handleCheckRoom(env.Data)
		case protocol.EventCreateRoom:
			return s.handleCreateRoom(env.Data)
		case protocol.EventJoinRoom:
			return s.handleJoinRoom(env.Data)
		default:
			return fmt.Errorf("event %q ignored while unbound", env.Event)
		}

	case stateBound:
		switch env.Event {
		case protocol.EventDraw:
			return s.handleDraw(env.Data)
		case protocol.EventUndo:
			return s.handleUndo()
		case protocol.EventMouseMove:
			return s.handleMouseMove(env.Data)
		case protocol.EventSendMsg:
			return s.handleSendMsg(env.Data)
		case protocol.EventLeaveRoom:
			return s.handleLeaveRoom()
		case protocol.EventJoinedRoom:
			return nil // client-side ack, nothing to do
		default:
			return fmt.Errorf("event %q ignored while bound", env.Event)
		}

	default:
		return nil
	}
}

// handleCheckRoom answers an existence probe; no side effects
func (s *Session) handleCheckRoom(data json.RawMessage) error {
	var req protocol.CheckRoom
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("unmarshal check_room: %w", err)
	}

	s.sendEvent(protocol.EventRoomExists, protocol.RoomExists{
		Exists: s.gw.registry.Exists(req.RoomID),
	})
	return nil
}

// handleCreateRoom mints a room, binds the creator and returns the id
func (s *Session) handleCreateRoom(data json.RawMessage) error {
	var req protocol.CreateRoom
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("unmarshal create_room: %w", err)
	}

	username := move.SanitizeString(req.Username)
	if username == "" {
		return fmt.Errorf("create_room: missing username")
	}

	roomID, err := s.gw.registry.Create(s.id, username)
	if err != nil {
		return fmt.Errorf("create_room: %w", err)
	}

	rp := s.gw.getPeers(roomID)
	rp.mu.Lock()
	rp.sessions[s.id] = s
	rp.mu.Unlock()

	s.bind(roomID, s.id)
	s.sendEvent(protocol.EventCreated, protocol.Created{RoomID: roomID})
	return nil
}

// handleJoinRoom binds the session into an existing room and hydrates the
// joiner with the full room snapshot. A missing room is reported to the
// requester only, with no registry mutation.
func (s *Session) handleJoinRoom(data json.RawMessage) error {
	var req protocol.JoinRoom
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("unmarshal join_room: %w", err)
	}

	username := move.SanitizeString(req.Username)
	if req.BoardID == "" || username == "" {
		return fmt.Errorf("join_room: missing boardId or username")
	}

	userID := req.UserID
	if userID == "" {
		userID = s.id
	}

	rp := s.gw.getPeers(req.BoardID)
	rp.mu.Lock()

	snap, err := s.gw.registry.Join(req.BoardID, userID, username)
	if err != nil {
		empty := len(rp.sessions) == 0
		rp.mu.Unlock()
		if empty {
			s.gw.dropPeers(req.BoardID, rp)
		}
		s.sendEvent(protocol.EventJoined, protocol.Joined{RoomID: req.BoardID, Failed: true})
		if err == room.ErrNotFound || err == room.ErrRoomFull {
			return nil
		}
		return fmt.Errorf("join_room: %w", err)
	}

	rp.sessions[userID] = s
	s.bind(req.BoardID, userID)

	s.sendEvent(protocol.EventJoined, protocol.Joined{RoomID: req.BoardID})

	snapshot, encErr := protocol.EncodeSnapshot(snap)
	if encErr == nil {
		s.sendEvent(protocol.EventRoom, snapshot)
	}

	if payload, err := protocol.Encode(protocol.EventNewUser, protocol.NewUser{UserID: userID, Username: username}); err == nil {
		rp.enqueueOthers(userID, payload)
	}
	rp.mu.Unlock()

	return encErr
}

// handleDraw records a validated move and fans it out. Record and fan-out
// happen under the room's peer lock so the broadcast order is exactly the
// registry's arrival order. Malformed moves are dropped before any state
// mutation.
func (s *Session) handleDraw(data json.RawMessage) error {
	var m move.Move
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unmarshal draw: %w", err)
	}

	if err := s.gw.validator.Validate(&m); err != nil {
		return fmt.Errorf("draw dropped: %w", err)
	}

	_, roomID, userID := s.currentState()
	rp := s.gw.getPeers(roomID)

	rp.mu.Lock()
	defer rp.mu.Unlock()

	recorded, err := s.gw.registry.RecordMove(roomID, userID, m)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	if payload, err := protocol.Encode(protocol.EventUserDraw, protocol.UserDraw{Move: recorded, UserID: userID}); err == nil {
		rp.enqueueOthers(userID, payload)
	}
	s.sendEvent(protocol.EventYourMove, recorded)
	return nil
}

// handleUndo removes the session user's latest move. Which move that is
// stays implicit on the wire: receivers pop their mirrored per-user stack.
// An empty log is a no-op with no broadcast.
func (s *Session) handleUndo() error {
	_, roomID, userID := s.currentState()
	rp := s.gw.getPeers(roomID)

	rp.mu.Lock()
	defer rp.mu.Unlock()

	if _, ok := s.gw.registry.UndoLast(roomID, userID); !ok {
		return nil
	}

	if payload, err := protocol.Encode(protocol.EventUserUndo, protocol.UserUndo{UserID: userID}); err == nil {
		rp.enqueueOthers(userID, payload)
	}
	return nil
}

// handleMouseMove relays a cursor position to the rest of the room,
// throttled server-side. Never touches room state.
func (s *Session) handleMouseMove(data json.RawMessage) error {
	var req protocol.MouseMove
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("unmarshal mouse_move: %w", err)
	}

	now := time.Now()
	s.mu.Lock()
	if now.Sub(s.lastCursor) < cursorMinInterval {
		s.mu.Unlock()
		return nil // Ignore to throttle
	}
	s.lastCursor = now
	roomID, userID := s.roomID, s.userID
	s.mu.Unlock()

	if payload, err := protocol.Encode(protocol.EventMouseMoved, protocol.MouseMoved{X: req.X, Y: req.Y, UserID: userID}); err == nil {
		s.gw.broadcast(roomID, userID, payload)
	}
	return nil
}

// handleSendMsg relays a chat message to the rest of the room. Relay only:
// nothing is stored, late joiners get no history.
func (s *Session) handleSendMsg(data json.RawMessage) error {
	var req protocol.SendMsg
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("unmarshal send_msg: %w", err)
	}

	msg := chat.Clean(req.Msg)
	if msg == "" {
		return nil
	}

	_, roomID, userID := s.currentState()

	payload, err := protocol.Encode(protocol.EventNewMsg, protocol.NewMsg{
		UserID: userID,
		Msg:    msg,
		ID:     s.gw.chat.Next(roomID),
	})
	if err != nil {
		return err
	}
	s.gw.broadcast(roomID, userID, payload)
	return nil
}

// handleLeaveRoom tears the session down and severs the connection
func (s *Session) handleLeaveRoom() error {
	s.teardown()
	s.closeConn()
	return nil
}
