package signaling

import (
	"strings"
	"sync"
	"testing"

	"github.com/collabhq/voicerelay/pkg/logger"
)

func newTestRoomPair(t *testing.T, room string) (*Registry, *Session, *Session, *testPeer, *testPeer) {
	t.Helper()
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())
	a, b := newTestPeer(), newTestPeer()
	sa := NewSession(a, room, reg, rel, nil, logger.Default())
	sb := NewSession(b, room, reg, rel, nil, logger.Default())
	sa.Start()
	sb.Start()
	return reg, sa, sb, a, b
}

func TestSessionGreeting(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())

	a := newTestPeer()
	sa := NewSession(a, "7", reg, rel, nil, logger.Default())
	sa.Start()
	if got := a.received(); len(got) != 1 || string(got[0]) != `{"type":"room_info","peerCount":0}` {
		t.Errorf("greeting = %q", got)
	}

	b := newTestPeer()
	sb := NewSession(b, "7", reg, rel, nil, logger.Default())
	sb.Start()
	if got := b.received(); len(got) != 1 || string(got[0]) != `{"type":"room_info","peerCount":1}` {
		t.Errorf("greeting = %q", got)
	}
}

func TestSessionJoinAnnouncement(t *testing.T) {
	_, sa, _, a, b := newTestRoomPair(t, "7")

	join := `{"type":"join","senderId":"A"}`
	sa.Handle([]byte(join))

	if got := b.count(join); got != 1 {
		t.Errorf("peer received the join %v times, want 1", got)
	}
	// the sender is excluded from its own announcement
	if got := a.count(join); got != 0 {
		t.Errorf("sender received its own join")
	}
}

func TestSessionOfferScenario(t *testing.T) {
	reg, sa, sb, a, b := newTestRoomPair(t, "7")

	sa.Handle([]byte(`{"type":"join","senderId":"A"}`))
	sb.Handle([]byte(`{"type":"join","senderId":"B"}`))

	offer := `{"type":"offer","senderId":"A","targetId":"B","sdp":"v=0..."}`
	sa.Handle([]byte(offer))

	if got := b.count(offer); got != 1 {
		t.Errorf("B received the offer %v times, want 1", got)
	}
	if got := a.count(offer); got != 0 {
		t.Errorf("A received its own offer")
	}

	sb.Finish()

	left := `{"type":"user_left","senderId":"B"}`
	if got := a.count(left); got != 1 {
		t.Errorf("A received user_left %v times, want 1", got)
	}
	if n := reg.PeerCount("7", nil); n != 1 {
		t.Errorf("room 7 membership = %v, want only A", n)
	}
}

func TestSessionForwardsBeforeJoin(t *testing.T) {
	// the relay is a transparent pipe: no join required first
	_, sa, _, _, b := newTestRoomPair(t, "7")

	ice := `{"type":"ice","senderId":"A","targetId":"B","candidate":{}}`
	sa.Handle([]byte(ice))
	if got := b.count(ice); got != 1 {
		t.Errorf("ice before join was not forwarded, got %v", got)
	}
}

func TestSessionForwardsUnknownAndMalformed(t *testing.T) {
	_, sa, _, _, b := newTestRoomPair(t, "7")

	for _, msg := range []string{
		`{"type":"mute","senderId":"A"}`,
		`{"senderId":"A"}`,
		`not json at all`,
	} {
		sa.Handle([]byte(msg))
		if got := b.count(msg); got != 1 {
			t.Errorf("message %q forwarded %v times, want 1", msg, got)
		}
	}
}

func TestSessionFinishWithoutIdentity(t *testing.T) {
	reg, sa, _, _, b := newTestRoomPair(t, "7")

	// never sent a join, so peers must not get a user_left
	sa.Finish()

	for _, m := range b.received() {
		if strings.Contains(string(m), MsgUserLeft) {
			t.Errorf("anonymous session produced a user_left: %s", m)
		}
	}
	if n := reg.PeerCount("7", nil); n != 1 {
		t.Errorf("room membership = %v, want 1", n)
	}
}

func TestSessionFinishExactlyOnce(t *testing.T) {
	_, sa, _, _, b := newTestRoomPair(t, "7")
	sa.Handle([]byte(`{"type":"join","senderId":"A"}`))

	// read-error path and explicit-close path may both fire
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); sa.Finish() }()
	}
	wg.Wait()

	left := `{"type":"user_left","senderId":"A"}`
	if got := b.count(left); got != 1 {
		t.Errorf("user_left broadcast %v times, want exactly 1", got)
	}
}

func TestSessionRoomRemovedAfterLastLeave(t *testing.T) {
	reg := NewRegistry()
	rel := NewRelay(reg, logger.Default())

	a := newTestPeer()
	sa := NewSession(a, "9", reg, rel, nil, logger.Default())
	sa.Start()
	sa.Handle([]byte(`{"type":"join","senderId":"A"}`))
	sa.Finish()

	if n := reg.RoomCount(); n != 0 {
		t.Errorf("room 9 leaked after its only member left")
	}

	// a later join starts with an empty peer set
	b := newTestPeer()
	sb := NewSession(b, "9", reg, rel, nil, logger.Default())
	sb.Start()
	if n := reg.PeerCount("9", b); n != 0 {
		t.Errorf("fresh room has %v peers, want 0", n)
	}
}

func TestSessionIdentityIsSticky(t *testing.T) {
	_, sa, _, _, b := newTestRoomPair(t, "7")

	sa.Handle([]byte(`{"type":"join","senderId":"A"}`))
	// a second join with a different id must not rebind the session
	sa.Handle([]byte(`{"type":"join","senderId":"Z"}`))
	sa.Finish()

	if got := b.count(`{"type":"user_left","senderId":"A"}`); got != 1 {
		t.Errorf("user_left did not carry the first registered identity")
	}
}
