package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/core"
	"github.com/avorin/huddle/internal/domain"
)

type connEntry struct {
	conn         core.Conn
	identity     *domain.Identity
	room         domain.RoomID
	roomJoinedAt time.Time
	openedAt     time.Time
	cancel       context.CancelFunc
}

// Registry owns every live connection. It is the only component that
// maps participant ids to handles; that mapping is best-effort and
// last-write-wins, so a second registration with the same participant
// id shadows the first (the earlier connection stays in its room but
// becomes unreachable by id).
type Registry struct {
	mu       sync.RWMutex
	conns    map[domain.Handle]*connEntry
	byPartID map[domain.ParticipantID]domain.Handle
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[domain.Handle]*connEntry),
		byPartID: make(map[domain.ParticipantID]domain.Handle),
	}
}

// Register assigns a fresh handle to an open channel. The returned
// handle has no identity and no room yet.
func (r *Registry) Register(conn core.Conn, cancel context.CancelFunc) domain.Handle {
	h := domain.NewHandle()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[h] = &connEntry{conn: conn, openedAt: time.Now(), cancel: cancel}
	log.Info().Str("module", "app.registry").Str("handle", string(h)).Msg("connection registered")
	return h
}

// AttachIdentity is idempotent and overwrites any previous identity,
// so a client may re-announce itself mid-session.
func (r *Registry) AttachIdentity(h domain.Handle, id domain.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[h]
	if !ok {
		return false
	}
	e.identity = &id
	if id.ParticipantID != "" {
		r.byPartID[id.ParticipantID] = h
	}
	log.Info().Str("module", "app.registry").Str("handle", string(h)).Str("participant", string(id.ParticipantID)).Msg("identity attached")
	return true
}

func (r *Registry) Identity(h domain.Handle) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[h]; ok && e.identity != nil {
		return *e.identity, true
	}
	return domain.Identity{}, false
}

// Resolve maps a participant id to its most recently registered handle.
func (r *Registry) Resolve(pid domain.ParticipantID) (domain.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byPartID[pid]
	return h, ok
}

func (r *Registry) Conn(h domain.Handle) (core.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[h]; ok {
		return e.conn, true
	}
	return nil, false
}

// SetRoom binds the connection to a room and stamps the membership.
// The returned timestamp travels with the membership: the open and the
// closing participation record both carry it.
func (r *Registry) SetRoom(h domain.Handle, room domain.RoomID) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[h]
	if !ok {
		return time.Time{}, false
	}
	e.room = room
	e.roomJoinedAt = time.Now()
	return e.roomJoinedAt, true
}

// TakeRoom atomically reads and clears the room association, returning
// the room and the join timestamp. The two paths that can process a
// leave (explicit event, transport disconnect) both go through here,
// so a leave runs exactly once per join.
func (r *Registry) TakeRoom(h domain.Handle) (domain.RoomID, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[h]
	if !ok || e.room == "" {
		return "", time.Time{}, false
	}
	room := e.room
	joinedAt := e.roomJoinedAt
	e.room = ""
	e.roomJoinedAt = time.Time{}
	return room, joinedAt, true
}

func (r *Registry) RoomOf(h domain.Handle) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[h]; ok && e.room != "" {
		return e.room, true
	}
	return "", false
}

// Unregister removes the connection and returns the room it was still
// in, if any, so the caller can run room cleanup. The room association
// is consumed here, mirroring TakeRoom, so an explicit leave that
// already ran leaves nothing to clean up.
func (r *Registry) Unregister(h domain.Handle) (domain.RoomID, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[h]
	if !ok {
		return "", time.Time{}, false
	}
	delete(r.conns, h)
	if e.identity != nil && e.identity.ParticipantID != "" {
		// Drop the id mapping only if it still points at us; a later
		// registration with the same participant id keeps its claim.
		if cur, ok := r.byPartID[e.identity.ParticipantID]; ok && cur == h {
			delete(r.byPartID, e.identity.ParticipantID)
		}
	}
	log.Info().
		Str("module", "app.registry").
		Str("handle", string(h)).
		Dur("session", time.Since(e.openedAt)).
		Msg("connection unregistered")
	return e.room, e.roomJoinedAt, e.room != ""
}

// Cancel aborts the connection's transport context, forcing the
// adapter to close the channel and run its disconnect path.
func (r *Registry) Cancel(h domain.Handle) bool {
	r.mu.RLock()
	e, ok := r.conns[h]
	r.mu.RUnlock()
	if !ok || e.cancel == nil {
		return false
	}
	e.cancel()
	log.Info().Str("module", "app.registry").Str("handle", string(h)).Msg("connection canceled")
	return true
}
