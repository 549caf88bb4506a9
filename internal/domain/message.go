package domain

import (
	"errors"
	"time"
)

const MaxMessageLen = 4096

var (
	ErrMessageEmpty   = errors.New("message empty")
	ErrMessageTooLong = errors.New("message too long")
)

// ChatMessage is an immutable value; it is appended to a room's history
// and forwarded to the durable store, never mutated after creation.
type ChatMessage struct {
	Sender       string    `json:"sender"`
	SenderHandle Handle    `json:"sender_handle"`
	Text         string    `json:"text"`
	SentAt       time.Time `json:"sent_at"`
}

func NewChatMessage(sender string, h Handle, text string) (ChatMessage, error) {
	if len(text) == 0 {
		return ChatMessage{}, ErrMessageEmpty
	}
	if len(text) > MaxMessageLen {
		return ChatMessage{}, ErrMessageTooLong
	}
	return ChatMessage{
		Sender:       sender,
		SenderHandle: h,
		Text:         text,
		SentAt:       time.Now(),
	}, nil
}
