package signaling

import (
	"errors"
	"testing"

	"github.com/collabhq/voicerelay/pkg/logger"
)

func TestBroadcastExcluding(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())
	a, b, c := newTestPeer(), newTestPeer(), newTestPeer()
	outside := newTestPeer()

	reg.Join(a, "7")
	reg.Join(b, "7")
	reg.Join(c, "7")
	reg.Join(outside, "8")

	rel.BroadcastExcluding("7", []byte("hello"), a)

	if got := a.count("hello"); got != 0 {
		t.Errorf("sender received its own broadcast %v times", got)
	}
	for _, p := range []*testPeer{b, c} {
		if got := p.count("hello"); got != 1 {
			t.Errorf("room member received %v messages, want 1", got)
		}
	}
	if got := outside.count("hello"); got != 0 {
		t.Errorf("peer outside the room received the broadcast")
	}
}

func TestBroadcastAll(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())
	a, b := newTestPeer(), newTestPeer()

	reg.Join(a, "7")
	reg.Join(b, "7")
	rel.BroadcastAll("7", []byte("bye"))

	for _, p := range []*testPeer{a, b} {
		if got := p.count("bye"); got != 1 {
			t.Errorf("member received %v messages, want 1", got)
		}
	}
}

func TestBroadcastSkipsDeparted(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())
	a, b := newTestPeer(), newTestPeer()

	reg.Join(a, "7")
	reg.Join(b, "7")
	reg.Leave(b, "7")
	rel.BroadcastExcluding("7", []byte("late"), nil)

	if got := b.count("late"); got != 0 {
		t.Errorf("departed peer received a broadcast")
	}
	if got := a.count("late"); got != 1 {
		t.Errorf("remaining peer received %v messages, want 1", got)
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())
	a, b, c := newTestPeer(), newTestPeer(), newTestPeer()
	b.fail = errors.New("broken pipe")

	reg.Join(a, "7")
	reg.Join(b, "7")
	reg.Join(c, "7")

	rel.BroadcastAll("7", []byte("x"))

	for _, p := range []*testPeer{a, c} {
		if got := p.count("x"); got != 1 {
			t.Errorf("healthy peer received %v messages, want 1", got)
		}
	}
}

func TestBroadcastEmptyRoom(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())
	// must not panic or create the room
	rel.BroadcastAll("404", []byte("x"))
	if n := reg.RoomCount(); n != 0 {
		t.Errorf("broadcast created a room")
	}
}
