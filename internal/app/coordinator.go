package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/core"
	"github.com/avorin/huddle/internal/domain"
	"github.com/avorin/huddle/internal/store"
)

const identityLookupTimeout = 2 * time.Second

// ErrNotInRoom rejects a chat message from a connection that has not
// joined a room yet.
var ErrNotInRoom = errors.New("not in a room")

// Coordinator is the single owner of all coordination state: the
// connection registry, the room directory, the signaling relay and the
// presence/chat broadcaster. It is explicitly constructed and stopped,
// never global, so multiple instances can run side by side in tests.
type Coordinator struct {
	Registry  *Registry
	Rooms     *Directory
	Relay     *Relay
	Broadcast *Broadcaster

	identities store.IdentityDirectory
	writer     *store.Writer
}

type CoordinatorOptions struct {
	HistoryCapacity int
	PersistQueue    int
	PersistWorkers  int
	Policy          Policy
}

func NewCoordinator(st store.Store, identities store.IdentityDirectory, opts CoordinatorOptions) *Coordinator {
	registry := NewRegistry()
	rooms := NewDirectory(opts.HistoryCapacity)
	writer := store.NewWriter(st, opts.PersistQueue, opts.PersistWorkers)
	return &Coordinator{
		Registry:   registry,
		Rooms:      rooms,
		Relay:      NewRelay(registry),
		Broadcast:  NewBroadcaster(registry, rooms, writer, opts.Policy),
		identities: identities,
		writer:     writer,
	}
}

// Stop drains the persistence queue. Call after the transport has shut
// down and no more events are produced.
func (c *Coordinator) Stop() {
	c.writer.Stop()
	log.Info().Str("module", "app.coordinator").Msg("stopped")
}

// Connect registers a freshly opened channel and returns its handle.
func (c *Coordinator) Connect(conn core.Conn, cancel context.CancelFunc) domain.Handle {
	return c.Registry.Register(conn, cancel)
}

// Join puts the connection into a room, enriching the supplied
// identity through the identity directory. A lookup failure degrades
// to a synthesized placeholder name rather than failing the join.
// A duplicate join to the current room is rejected; a join to a
// different room leaves the old one first.
func (c *Coordinator) Join(ctx context.Context, h domain.Handle, roomID domain.RoomID, pid domain.ParticipantID, displayName string) error {
	if cur, ok := c.Registry.RoomOf(h); ok {
		if cur == roomID {
			return ErrAlreadyMember
		}
		if prev, joinedAt, taken := c.Registry.TakeRoom(h); taken {
			c.finishLeave(prev, h, joinedAt)
		}
	}

	id := c.lookupIdentity(ctx, pid, h)
	if displayName != "" {
		if named, err := domain.NewIdentity(pid, displayName, id.Role); err == nil {
			id = named
		}
	}
	c.Registry.AttachIdentity(h, id)

	res, err := c.Rooms.Join(roomID, h)
	if err != nil {
		return err
	}
	joinedAt, _ := c.Registry.SetRoom(h, roomID)
	c.Broadcast.AnnounceJoin(roomID, h, id, joinedAt, res)
	return nil
}

// Leave handles an explicit leave-room event. A leave without a
// current room is a no-op.
func (c *Coordinator) Leave(h domain.Handle) {
	room, joinedAt, ok := c.Registry.TakeRoom(h)
	if !ok {
		return
	}
	c.finishLeave(room, h, joinedAt)
}

// Disconnect is the implicit leave on channel close. It races the
// explicit leave path safely: the registry hands the room association
// to exactly one of them.
func (c *Coordinator) Disconnect(h domain.Handle) {
	// Identity must be read before the entry is dropped.
	id, _ := c.Registry.Identity(h)
	room, joinedAt, ok := c.Registry.Unregister(h)
	if !ok {
		return
	}
	remaining, left := c.Rooms.Leave(room, h)
	if !left {
		return
	}
	c.Broadcast.AnnounceLeave(room, h, id, joinedAt, remaining)
}

func (c *Coordinator) finishLeave(room domain.RoomID, h domain.Handle, joinedAt time.Time) {
	remaining, left := c.Rooms.Leave(room, h)
	if !left {
		return
	}
	id, ok := c.Registry.Identity(h)
	if !ok {
		id = domain.PlaceholderIdentity("", h)
	}
	c.Broadcast.AnnounceLeave(room, h, id, joinedAt, remaining)
}

// Message broadcasts a chat message to the sender's current room.
func (c *Coordinator) Message(h domain.Handle, text string) (core.PublishResult, error) {
	room, ok := c.Registry.RoomOf(h)
	if !ok {
		return core.PublishResult{}, ErrNotInRoom
	}
	id, ok := c.Registry.Identity(h)
	if !ok {
		id = domain.PlaceholderIdentity("", h)
	}
	m, err := domain.NewChatMessage(id.DisplayName, h, text)
	if err != nil {
		return core.PublishResult{}, err
	}
	return c.Broadcast.BroadcastMessage(room, id.ParticipantID, m), nil
}

// Signal relays one envelope; see Relay for the drop semantics.
func (c *Coordinator) Signal(h domain.Handle, env domain.SignalEnvelope) {
	c.Relay.Relay(env, h)
}

// lookupIdentity runs outside every lock; the identity service is a
// fallible external call.
func (c *Coordinator) lookupIdentity(ctx context.Context, pid domain.ParticipantID, h domain.Handle) domain.Identity {
	if pid == "" || c.identities == nil {
		return domain.PlaceholderIdentity(pid, h)
	}
	ctx, cancel := context.WithTimeout(ctx, identityLookupTimeout)
	defer cancel()
	id, err := c.identities.ResolveIdentity(ctx, pid)
	if err != nil {
		log.Warn().
			Err(err).
			Str("module", "app.coordinator").
			Str("participant", string(pid)).
			Msg("identity lookup failed, using placeholder")
		return domain.PlaceholderIdentity(pid, h)
	}
	return id
}
