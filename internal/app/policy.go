package app

import "github.com/avorin/huddle/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose outbound queue is full
// during fan-out.
type Policy interface {
	OnBackPressure(room domain.RoomID, h domain.Handle) BackpressureAction
}

// DropPolicy sheds the frame and keeps the member. Presence and chat
// tolerate an occasional lost notification.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.RoomID, domain.Handle) BackpressureAction {
	return DropFrame
}

// KickPolicy disconnects a consumer that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.RoomID, domain.Handle) BackpressureAction {
	return KickMember
}
