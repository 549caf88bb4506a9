package app

import (
	"testing"

	"github.com/avorin/huddle/internal/domain"
)

func TestRegisterAssignsDistinctHandles(t *testing.T) {
	r := NewRegistry()
	h1 := r.Register(&stubConn{}, nil)
	h2 := r.Register(&stubConn{}, nil)
	if h1 == h2 {
		t.Fatalf("expected distinct handles, got %q twice", h1)
	}
	if _, ok := r.Conn(h1); !ok {
		t.Fatal("registered connection not retrievable")
	}
}

func TestAttachIdentityOverwrites(t *testing.T) {
	r := NewRegistry()
	h := r.Register(&stubConn{}, nil)

	if !r.AttachIdentity(h, domain.Identity{ParticipantID: "u1", DisplayName: "Ann"}) {
		t.Fatal("attach failed")
	}
	if !r.AttachIdentity(h, domain.Identity{ParticipantID: "u1", DisplayName: "Annie"}) {
		t.Fatal("re-attach failed")
	}
	id, ok := r.Identity(h)
	if !ok || id.DisplayName != "Annie" {
		t.Fatalf("expected overwritten identity, got %+v", id)
	}
}

func TestResolveLastWriteWins(t *testing.T) {
	r := NewRegistry()
	h1 := r.Register(&stubConn{}, nil)
	h2 := r.Register(&stubConn{}, nil)

	r.AttachIdentity(h1, domain.Identity{ParticipantID: "u1", DisplayName: "first"})
	r.AttachIdentity(h2, domain.Identity{ParticipantID: "u1", DisplayName: "second"})

	got, ok := r.Resolve("u1")
	if !ok || got != h2 {
		t.Fatalf("expected most recent registration %q, got %q (ok=%v)", h2, got, ok)
	}

	// The shadowed connection leaving must not clear the newer claim.
	r.Unregister(h1)
	got, ok = r.Resolve("u1")
	if !ok || got != h2 {
		t.Fatalf("newer claim lost after shadowed unregister: %q (ok=%v)", got, ok)
	}

	r.Unregister(h2)
	if _, ok := r.Resolve("u1"); ok {
		t.Fatal("participant id still resolvable after owner unregistered")
	}
}

func TestUnregisterReturnsRoom(t *testing.T) {
	r := NewRegistry()
	h := r.Register(&stubConn{}, nil)
	r.SetRoom(h, "standup")

	room, _, ok := r.Unregister(h)
	if !ok || room != "standup" {
		t.Fatalf("expected room standup, got %q (ok=%v)", room, ok)
	}
	if _, _, ok := r.Unregister(h); ok {
		t.Fatal("second unregister reported a room")
	}
}

func TestTakeRoomConsumesAssociation(t *testing.T) {
	r := NewRegistry()
	h := r.Register(&stubConn{}, nil)
	r.SetRoom(h, "standup")

	room, _, ok := r.TakeRoom(h)
	if !ok || room != "standup" {
		t.Fatalf("TakeRoom = %q, %v", room, ok)
	}
	if _, _, ok := r.TakeRoom(h); ok {
		t.Fatal("room association handed out twice")
	}
	// The disconnect path must see nothing left to clean up either.
	if _, _, ok := r.Unregister(h); ok {
		t.Fatal("unregister saw a room after TakeRoom")
	}
}
