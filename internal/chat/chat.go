// Package chat relays room chat. Messages are never stored in the room:
// late joiners get no history, only traffic from the moment they join.
package chat

import (
	"strings"
	"sync"
	"unicode/utf8"

	"boardsync/internal/move"
)

const maxMessageLength = 1024

// Sequencer hands out monotonically increasing per-room message ids for
// client-side ordering and dedup.
type Sequencer struct {
	seqs map[string]int64
	mu   sync.Mutex
}

func NewSequencer() *Sequencer {
	return &Sequencer{
		seqs: make(map[string]int64),
	}
}

// Next returns the next sequence id for the room
func (s *Sequencer) Next(roomID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seqs[roomID]++
	return s.seqs[roomID]
}

// Forget drops the room's counter once the room is destroyed
func (s *Sequencer) Forget(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seqs, roomID)
}

// Clean strips markup from a message and caps its length. Empty after
// cleaning means there is nothing worth relaying.
func Clean(msg string) string {
	msg = strings.TrimSpace(move.SanitizeString(msg))
	if len(msg) > maxMessageLength {
		// Cut on a rune boundary so the cap never splits a multi-byte
		// character
		cut := maxMessageLength
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
