package domain

import (
	"encoding/json"
	"time"
)

// Event vocabulary on the wire. Clients send join/leave/message/signal;
// the coordinator emits the rest.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"
	EventSignal  = "signal"
	EventPing    = "ping"

	EventParticipantJoined = "participant-joined"
	EventParticipantLeft   = "participant-left"
	EventChatMessage       = "chat-message"
	EventRoomState         = "room-state"
	EventError             = "error"
	EventPong              = "pong"
)

type JoinedEvent struct {
	Type     string   `json:"type"`
	Handle   Handle   `json:"handle"`
	Identity Identity `json:"identity"`
}

type LeftEvent struct {
	Type   string `json:"type"`
	Handle Handle `json:"handle"`
}

type ChatEvent struct {
	Type         string    `json:"type"`
	Sender       string    `json:"sender"`
	SenderHandle Handle    `json:"sender_handle"`
	Text         string    `json:"text"`
	SentAt       time.Time `json:"sent_at"`
}

// SignalEvent wraps a relayed envelope for the target. Payload passes
// through byte-for-byte.
type SignalEvent struct {
	Type    string          `json:"type"`
	From    Handle          `json:"from"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type MemberView struct {
	Handle   Handle   `json:"handle"`
	Identity Identity `json:"identity"`
}

// RoomStateEvent is delivered to a joiner only: current membership plus
// the replayed chat history, before any live broadcast becomes visible.
type RoomStateEvent struct {
	Type    string        `json:"type"`
	Room    RoomID        `json:"room"`
	Members []MemberView  `json:"members"`
	History []ChatMessage `json:"history"`
}

func NewChatEvent(m ChatMessage) ChatEvent {
	return ChatEvent{
		Type:         EventChatMessage,
		Sender:       m.Sender,
		SenderHandle: m.SenderHandle,
		Text:         m.Text,
		SentAt:       m.SentAt,
	}
}
