package domain

import "errors"

type RoomID string

const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

// ParseRoomID validates a caller-supplied room identifier.
// The first join with a fresh id creates the room.
func ParseRoomID(raw string) (RoomID, error) {
	if len(raw) == 0 {
		return "", ErrRoomIDEmpty
	}
	if len(raw) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(raw), nil
}
