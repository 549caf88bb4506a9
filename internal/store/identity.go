package store

import (
	"context"
	"sync"

	"github.com/avorin/huddle/internal/domain"
)

// StaticDirectory is an in-memory IdentityDirectory for dev setups
// without a user service.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[domain.ParticipantID]domain.Identity
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{users: make(map[domain.ParticipantID]domain.Identity)}
}

func (d *StaticDirectory) Put(id domain.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[id.ParticipantID] = id
}

func (d *StaticDirectory) ResolveIdentity(_ context.Context, pid domain.ParticipantID) (domain.Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, ok := d.users[pid]; ok {
		return id, nil
	}
	return domain.Identity{}, ErrUnknownIdentity
}
