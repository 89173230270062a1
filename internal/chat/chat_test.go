package chat

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSequencerMonotonic(t *testing.T) {
	s := NewSequencer()

	var prev int64
	for i := 0; i < 10; i++ {
		id := s.Next("room-a")
		if id <= prev {
			t.Fatalf("sequence not increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestSequencerPerRoom(t *testing.T) {
	s := NewSequencer()

	s.Next("room-a")
	s.Next("room-a")
	if got := s.Next("room-b"); got != 1 {
		t.Errorf("rooms must count independently, got %d", got)
	}
}

func TestSequencerForget(t *testing.T) {
	s := NewSequencer()

	s.Next("room-a")
	s.Forget("room-a")
	if got := s.Next("room-a"); got != 1 {
		t.Errorf("forgotten room should restart at 1, got %d", got)
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  hello  "); got != "hello" {
		t.Errorf("Clean trimmed wrong: %q", got)
	}
	if got := Clean("<b>hi</b>"); got != "hi" {
		t.Errorf("Clean should strip markup: %q", got)
	}
	if got := Clean("<script>x</script>"); strings.Contains(got, "script") {
		t.Errorf("Clean left script content: %q", got)
	}
	if got := Clean(strings.Repeat("a", 5000)); len(got) != 1024 {
		t.Errorf("Clean should cap length, got %d", len(got))
	}
}

func TestCleanCapKeepsRunesWhole(t *testing.T) {
	// 3-byte runes land a rune mid-character at the byte cap
	got := Clean(strings.Repeat("日", 500))

	if len(got) > 1024 {
		t.Fatalf("cap exceeded: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got[len(got)-4:])
	}
	if want := 1024 / 3; utf8.RuneCountInString(got) != want {
		t.Errorf("rune count = %d, want %d", utf8.RuneCountInString(got), want)
	}
}
