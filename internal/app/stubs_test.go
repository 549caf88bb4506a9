package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/avorin/huddle/internal/core"
	"github.com/avorin/huddle/internal/domain"
)

var errQueueFull = errors.New("queue full")

// stubConn records delivered frames in order.
type stubConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	gone   bool
}

func (c *stubConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gone {
		return core.ErrClosed
	}
	if c.full {
		return errQueueFull
	}
	cp := make(core.Frame, len(f))
	copy(cp, f)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *stubConn) Close() {}

func (c *stubConn) Frames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// eventTypes decodes just the type tag of every recorded frame.
func (c *stubConn) eventTypes() []string {
	var out []string
	for _, f := range c.Frames() {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(f, &env)
		out = append(out, env.Type)
	}
	return out
}

// recordingPolicy counts backpressure callbacks.
type recordingPolicy struct {
	mu    sync.Mutex
	calls int
}

func (p *recordingPolicy) OnBackPressure(domain.RoomID, domain.Handle) BackpressureAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return DropFrame
}

func (p *recordingPolicy) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordStore captures participation records as written.
type participationRecord struct {
	room     domain.RoomID
	pid      domain.ParticipantID
	joinedAt time.Time
	leftAt   *time.Time
}

type recordStore struct {
	mu    sync.Mutex
	parts []participationRecord
}

func (s *recordStore) RecordParticipation(_ context.Context, room domain.RoomID, pid domain.ParticipantID, joinedAt time.Time, leftAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts = append(s.parts, participationRecord{room: room, pid: pid, joinedAt: joinedAt, leftAt: leftAt})
	return nil
}

func (s *recordStore) RecordMessage(context.Context, domain.RoomID, domain.ParticipantID, string, time.Time) error {
	return nil
}

func (s *recordStore) RecordRoomClosed(context.Context, domain.RoomID, time.Time) error {
	return nil
}

func (s *recordStore) participations() []participationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]participationRecord, len(s.parts))
	copy(out, s.parts)
	return out
}

// failStore fails every write and counts the attempts.
type failStore struct {
	mu    sync.Mutex
	calls int
}

func (s *failStore) bump() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errors.New("store unavailable")
}

func (s *failStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *failStore) RecordParticipation(context.Context, domain.RoomID, domain.ParticipantID, time.Time, *time.Time) error {
	return s.bump()
}

func (s *failStore) RecordMessage(context.Context, domain.RoomID, domain.ParticipantID, string, time.Time) error {
	return s.bump()
}

func (s *failStore) RecordRoomClosed(context.Context, domain.RoomID, time.Time) error {
	return s.bump()
}
