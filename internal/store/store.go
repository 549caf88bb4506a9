// Package store holds the narrow interfaces to the two external
// collaborators (durable message/room store, identity lookup) and their
// implementations. The coordinator treats both as black boxes:
// store writes are fire-and-forget, identity misses degrade to a
// placeholder name.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/avorin/huddle/internal/domain"
)

// Store persists room membership history and chat transcripts for
// later analytics. Errors are logged by the caller, never retried here.
type Store interface {
	RecordParticipation(ctx context.Context, room domain.RoomID, pid domain.ParticipantID, joinedAt time.Time, leftAt *time.Time) error
	RecordMessage(ctx context.Context, room domain.RoomID, pid domain.ParticipantID, text string, at time.Time) error
	RecordRoomClosed(ctx context.Context, room domain.RoomID, at time.Time) error
}

// ErrUnknownIdentity is returned when a participant id cannot be
// resolved to a display name.
var ErrUnknownIdentity = errors.New("unknown identity")

// IdentityDirectory resolves a participant id to a display name/role.
type IdentityDirectory interface {
	ResolveIdentity(ctx context.Context, pid domain.ParticipantID) (domain.Identity, error)
}

// NopStore discards every write. Used when no store backend is
// configured (dev, tests).
type NopStore struct{}

func (NopStore) RecordParticipation(context.Context, domain.RoomID, domain.ParticipantID, time.Time, *time.Time) error {
	return nil
}

func (NopStore) RecordMessage(context.Context, domain.RoomID, domain.ParticipantID, string, time.Time) error {
	return nil
}

func (NopStore) RecordRoomClosed(context.Context, domain.RoomID, time.Time) error {
	return nil
}
