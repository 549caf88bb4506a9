package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/domain"
)

// StreamStore publishes participation and message events to NATS
// subjects instead of writing them itself; analytics consumers
// subscribe out-of-process. Publish semantics match the coordinator's
// fire-and-forget contract.
type StreamStore struct {
	conn *nats.Conn
}

func NewStreamStore(url string) (*StreamStore, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Info().Str("module", "store.nats").Str("url", url).Msg("connected")
	return &StreamStore{conn: conn}, nil
}

func (s *StreamStore) Close() {
	s.conn.Close()
}

func (s *StreamStore) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.conn.Publish(subject, b); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (s *StreamStore) RecordParticipation(_ context.Context, room domain.RoomID, pid domain.ParticipantID, joinedAt time.Time, leftAt *time.Time) error {
	return s.publish(fmt.Sprintf("huddle.rooms.%s.participation", room), struct {
		Room     domain.RoomID        `json:"room_id"`
		PID      domain.ParticipantID `json:"participant_id"`
		JoinedAt time.Time            `json:"joined_at"`
		LeftAt   *time.Time           `json:"left_at,omitempty"`
	}{room, pid, joinedAt, leftAt})
}

func (s *StreamStore) RecordMessage(_ context.Context, room domain.RoomID, pid domain.ParticipantID, text string, at time.Time) error {
	return s.publish(fmt.Sprintf("huddle.rooms.%s.messages", room), struct {
		Room   domain.RoomID        `json:"room_id"`
		PID    domain.ParticipantID `json:"participant_id"`
		Text   string               `json:"text"`
		SentAt time.Time            `json:"sent_at"`
	}{room, pid, text, at})
}

func (s *StreamStore) RecordRoomClosed(_ context.Context, room domain.RoomID, at time.Time) error {
	return s.publish(fmt.Sprintf("huddle.rooms.%s.closed", room), struct {
		Room     domain.RoomID `json:"room_id"`
		ClosedAt time.Time     `json:"closed_at"`
	}{room, at})
}
