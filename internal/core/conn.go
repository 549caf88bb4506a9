// Package core defines the contracts shared between the coordination
// logic and its transport adapters.
package core

import "errors"

// ErrClosed reports a send on a channel that is already closed. It is
// distinct from backpressure: a closed channel is simply gone, and
// fan-out treats it like a missing one.
var ErrClosed = errors.New("channel closed")

// Frame is a raw encoded event payload.
type Frame []byte

// Conn abstracts a member's messaging transport.
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: a full outbound queue is reported as an error
// so fan-out can account for slow consumers instead of stalling.
type Conn interface {
	TrySend(Frame) error
	Close()
}
