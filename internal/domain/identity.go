// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"fmt"
)

const (
	MaxParticipantIDLen = 64
	MaxDisplayNameLen   = 36
)

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
)

type ParticipantID string

// Identity is the participant meta attached to a connection at join time.
// Role is free-form; the coordinator never branches on it.
type Identity struct {
	ParticipantID ParticipantID `json:"participant_id"`
	DisplayName   string        `json:"display_name"`
	Role          string        `json:"role,omitempty"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(pid ParticipantID, displayName, role string) (Identity, error) {
	if len(displayName) == 0 {
		return Identity{}, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return Identity{}, ErrDisplayNameTooLong
	}
	return Identity{ParticipantID: pid, DisplayName: displayName, Role: role}, nil
}

// PlaceholderIdentity synthesizes a guest identity from a connection handle.
// Used when the identity directory cannot resolve a participant.
func PlaceholderIdentity(pid ParticipantID, h Handle) Identity {
	suffix := string(h)
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return Identity{
		ParticipantID: pid,
		DisplayName:   fmt.Sprintf("guest-%s", suffix),
	}
}
