package app

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/domain"
)

// ErrAlreadyMember rejects a duplicate join by the same handle. The
// room state is unaffected.
var ErrAlreadyMember = errors.New("already a member of this room")

// DefaultHistoryCapacity bounds the per-room replay buffer.
const DefaultHistoryCapacity = 50

type JoinResult struct {
	IsNewRoom       bool
	ExistingMembers []domain.Handle
	RecentHistory   []domain.ChatMessage
}

// room state is guarded by its own lock so operations on different
// rooms never block each other. closed fences a racing reader that
// still holds a pointer to a room already emptied and dropped from
// the directory map.
type room struct {
	mu      sync.RWMutex
	members []domain.Handle // insertion order = join order
	history *historyRing
	closed  bool
}

// Directory maps room ids to member sets and cached chat history.
// Invariant: a room reachable through the directory has at least one
// member; the last leave deletes it atomically, so no reader ever
// observes an empty room.
type Directory struct {
	mu         sync.RWMutex
	rooms      map[domain.RoomID]*room
	historyCap int
}

func NewDirectory(historyCap int) *Directory {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCapacity
	}
	return &Directory{
		rooms:      make(map[domain.RoomID]*room),
		historyCap: historyCap,
	}
}

// Join adds the handle to the room, creating the room on first join.
// The returned snapshot (existing members, recent history) is taken
// under the room lock, before the announcement fan-out runs.
func (d *Directory) Join(id domain.RoomID, h domain.Handle) (JoinResult, error) {
	for {
		d.mu.Lock()
		r, ok := d.rooms[id]
		created := false
		if !ok {
			r = &room{history: newHistoryRing(d.historyCap)}
			d.rooms[id] = r
			created = true
		}
		d.mu.Unlock()

		r.mu.Lock()
		if r.closed {
			// Lost a race with the last leave; the id now refers to a
			// fresh lifecycle. Drop the stale entry and retry.
			r.mu.Unlock()
			d.evict(id, r)
			continue
		}
		for _, m := range r.members {
			if m == h {
				r.mu.Unlock()
				return JoinResult{}, ErrAlreadyMember
			}
		}
		existing := make([]domain.Handle, len(r.members))
		copy(existing, r.members)
		r.members = append(r.members, h)
		history := r.history.snapshot()
		r.mu.Unlock()

		log.Info().
			Str("module", "app.directory").
			Str("room", string(id)).
			Str("handle", string(h)).
			Bool("new_room", created).
			Int("members", len(existing)+1).
			Msg("joined room")
		return JoinResult{IsNewRoom: created, ExistingMembers: existing, RecentHistory: history}, nil
	}
}

// Leave removes the handle and reports how many members remain. A
// leave for a handle that is not a member is a no-op (left=false), so
// an explicit leave racing a transport disconnect stays idempotent.
// Emptying the room deletes it in the same call.
func (d *Directory) Leave(id domain.RoomID, h domain.Handle) (remaining int, left bool) {
	d.mu.RLock()
	r, ok := d.rooms[id]
	d.mu.RUnlock()
	if !ok {
		return 0, false
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, false
	}
	idx := -1
	for i, m := range r.members {
		if m == h {
			idx = i
			break
		}
	}
	if idx < 0 {
		remaining = len(r.members)
		r.mu.Unlock()
		return remaining, false
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	remaining = len(r.members)
	if remaining == 0 {
		r.closed = true
	}
	r.mu.Unlock()

	if remaining == 0 {
		d.evict(id, r)
		log.Info().Str("module", "app.directory").Str("room", string(id)).Msg("room emptied and removed")
	}
	return remaining, true
}

// evict removes the mapping only if it still points at this room
// instance; the id may already belong to a fresh lifecycle.
func (d *Directory) evict(id domain.RoomID, r *room) {
	d.mu.Lock()
	if cur, ok := d.rooms[id]; ok && cur == r {
		delete(d.rooms, id)
	}
	d.mu.Unlock()
}

// AppendMessage appends to the bounded history buffer, evicting the
// oldest entry once full. Returns false if the room does not exist.
func (d *Directory) AppendMessage(id domain.RoomID, m domain.ChatMessage) bool {
	d.mu.RLock()
	r, ok := d.rooms[id]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.history.push(m)
	return true
}

// BroadcastTargets snapshots the member list in join order. Membership
// may change between snapshot and delivery; delivery to a departed
// handle is a no-op, never an error.
func (d *Directory) BroadcastTargets(id domain.RoomID) []domain.Handle {
	d.mu.RLock()
	r, ok := d.rooms[id]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil
	}
	out := make([]domain.Handle, len(r.members))
	copy(out, r.members)
	return out
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		r.mu.RLock()
		n := len(r.members)
		closed := r.closed
		r.mu.RUnlock()
		if closed || n == 0 {
			continue
		}
		out = append(out, RoomInfo{ID: id, MemberCount: n})
	}
	return out
}
