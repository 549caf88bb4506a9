package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/avorin/huddle/internal/domain"
	"github.com/avorin/huddle/internal/store"
)

type fixture struct {
	reg   *Registry
	rooms *Directory
	bc    *Broadcaster
	w     *store.Writer
}

func newFixture(t *testing.T, st store.Store) *fixture {
	t.Helper()
	if st == nil {
		st = store.NopStore{}
	}
	reg := NewRegistry()
	rooms := NewDirectory(0)
	w := store.NewWriter(st, 64, 1)
	return &fixture{reg: reg, rooms: rooms, bc: NewBroadcaster(reg, rooms, w, nil), w: w}
}

func (f *fixture) addMember(t *testing.T, room domain.RoomID, pid domain.ParticipantID) (domain.Handle, *stubConn) {
	t.Helper()
	conn := &stubConn{}
	h := f.reg.Register(conn, nil)
	f.reg.AttachIdentity(h, domain.Identity{ParticipantID: pid, DisplayName: string(pid)})
	if _, err := f.rooms.Join(room, h); err != nil {
		t.Fatalf("join: %v", err)
	}
	f.reg.SetRoom(h, room)
	return h, conn
}

func TestAnnounceJoinExcludesJoiner(t *testing.T) {
	f := newFixture(t, nil)
	defer f.w.Stop()

	_, c1 := f.addMember(t, "daily", "ann")
	_, c2 := f.addMember(t, "daily", "ben")

	joinerConn := &stubConn{}
	joiner := f.reg.Register(joinerConn, nil)
	id := domain.Identity{ParticipantID: "cid", DisplayName: "cid"}
	f.reg.AttachIdentity(joiner, id)
	res, err := f.rooms.Join("daily", joiner)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	f.bc.AnnounceJoin("daily", joiner, id, time.Now(), res)

	for _, c := range []*stubConn{c1, c2} {
		types := c.eventTypes()
		if len(types) != 1 || types[0] != domain.EventParticipantJoined {
			t.Fatalf("member events = %v, want one participant-joined", types)
		}
	}
	// The joiner sees the room state, never its own join announcement.
	types := joinerConn.eventTypes()
	if len(types) != 1 || types[0] != domain.EventRoomState {
		t.Fatalf("joiner events = %v, want one room-state", types)
	}
}

func TestRoomStatePrecedesLiveBroadcast(t *testing.T) {
	f := newFixture(t, nil)
	defer f.w.Stop()

	sender, _ := f.addMember(t, "daily", "ann")
	for i := 0; i < 3; i++ {
		m, _ := domain.NewChatMessage("ann", sender, "hello")
		f.bc.BroadcastMessage("daily", "ann", m)
	}

	joinerConn := &stubConn{}
	joiner := f.reg.Register(joinerConn, nil)
	id := domain.Identity{ParticipantID: "ben", DisplayName: "ben"}
	f.reg.AttachIdentity(joiner, id)
	res, _ := f.rooms.Join("daily", joiner)
	f.bc.AnnounceJoin("daily", joiner, id, time.Now(), res)

	frames := joinerConn.Frames()
	if len(frames) == 0 {
		t.Fatal("joiner received nothing")
	}
	var state domain.RoomStateEvent
	if err := json.Unmarshal(frames[0], &state); err != nil || state.Type != domain.EventRoomState {
		t.Fatalf("first frame is not room-state: %s", frames[0])
	}
	if len(state.History) != 3 {
		t.Fatalf("replayed %d messages, want 3", len(state.History))
	}
	if len(state.Members) != 2 {
		t.Fatalf("room state lists %d members, want 2", len(state.Members))
	}
}

func TestAnnounceLeaveExcludesLeaver(t *testing.T) {
	f := newFixture(t, nil)
	defer f.w.Stop()

	leaver, leaverConn := f.addMember(t, "daily", "ann")
	_, stayConn := f.addMember(t, "daily", "ben")

	remaining, left := f.rooms.Leave("daily", leaver)
	if !left {
		t.Fatal("leave failed")
	}
	f.bc.AnnounceLeave("daily", leaver, domain.Identity{ParticipantID: "ann"}, time.Now(), remaining)

	types := stayConn.eventTypes()
	if len(types) != 1 || types[0] != domain.EventParticipantLeft {
		t.Fatalf("remaining member events = %v", types)
	}
	if got := leaverConn.eventTypes(); len(got) != 0 {
		t.Fatalf("leaver received its own announcement: %v", got)
	}
}

func TestBroadcastMessageReachesAllMembers(t *testing.T) {
	f := newFixture(t, nil)
	defer f.w.Stop()

	sender, senderConn := f.addMember(t, "daily", "ann")
	_, otherConn := f.addMember(t, "daily", "ben")

	m, _ := domain.NewChatMessage("ann", sender, "hello all")
	res := f.bc.BroadcastMessage("daily", "ann", m)
	if res.SentTo != 2 {
		t.Fatalf("sent_to = %d, want 2 (no self-filtering at this layer)", res.SentTo)
	}
	for _, c := range []*stubConn{senderConn, otherConn} {
		types := c.eventTypes()
		if len(types) != 1 || types[0] != domain.EventChatMessage {
			t.Fatalf("events = %v", types)
		}
	}
}

func TestStoreFailureDoesNotBlockBroadcast(t *testing.T) {
	st := &failStore{}
	f := newFixture(t, st)

	sender, _ := f.addMember(t, "daily", "ann")
	_, otherConn := f.addMember(t, "daily", "ben")

	m, _ := domain.NewChatMessage("ann", sender, "still here")
	res := f.bc.BroadcastMessage("daily", "ann", m)
	if res.SentTo != 2 {
		t.Fatalf("live delivery impaired by store failure: sent_to=%d", res.SentTo)
	}
	if got := otherConn.eventTypes(); len(got) != 1 || got[0] != domain.EventChatMessage {
		t.Fatalf("member did not get the message: %v", got)
	}

	// Drain the writer and confirm the write was attempted and failed.
	f.w.Stop()
	if st.count() == 0 {
		t.Fatal("store write never attempted")
	}
}

func TestClosedChannelSkippedSilently(t *testing.T) {
	reg := NewRegistry()
	rooms := NewDirectory(0)
	w := store.NewWriter(store.NopStore{}, 8, 1)
	defer w.Stop()
	pol := &recordingPolicy{}
	bc := NewBroadcaster(reg, rooms, w, pol)

	senderConn := &stubConn{}
	sender := reg.Register(senderConn, nil)
	rooms.Join("daily", sender)
	reg.SetRoom(sender, "daily")

	goneConn := &stubConn{gone: true}
	gone := reg.Register(goneConn, nil)
	rooms.Join("daily", gone)
	reg.SetRoom(gone, "daily")

	m, _ := domain.NewChatMessage("ann", sender, "hi")
	res := bc.BroadcastMessage("daily", "ann", m)

	// A closed channel is gone, not slow: it is neither reported as
	// dropped nor routed through the backpressure policy.
	if res.SentTo != 1 {
		t.Fatalf("sent_to = %d, want 1", res.SentTo)
	}
	if len(res.Dropped) != 0 {
		t.Fatalf("closed channel reported as backpressured: %v", res.Dropped)
	}
	if pol.count() != 0 {
		t.Fatalf("policy consulted %d times for a closed channel", pol.count())
	}
}

func TestBackpressuredMemberReported(t *testing.T) {
	f := newFixture(t, nil)
	defer f.w.Stop()

	sender, _ := f.addMember(t, "daily", "ann")
	slow, slowConn := f.addMember(t, "daily", "ben")
	slowConn.full = true

	m, _ := domain.NewChatMessage("ann", sender, "hi")
	res := f.bc.BroadcastMessage("daily", "ann", m)
	if res.SentTo != 1 {
		t.Fatalf("sent_to = %d, want 1", res.SentTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != slow {
		t.Fatalf("dropped = %v, want [%s]", res.Dropped, slow)
	}
}
