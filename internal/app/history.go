package app

import "github.com/avorin/huddle/internal/domain"

// historyRing is a fixed-capacity FIFO buffer of the most recent chat
// messages, replayed to late joiners. Oldest entry is evicted once the
// buffer is full. Not safe for concurrent use; the owning room's lock
// covers it.
type historyRing struct {
	buf  []domain.ChatMessage
	head int
	size int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyRing{buf: make([]domain.ChatMessage, capacity)}
}

func (r *historyRing) push(m domain.ChatMessage) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = m
		r.size++
		return
	}
	r.buf[r.head] = m
	r.head = (r.head + 1) % len(r.buf)
}

// snapshot returns the buffered messages oldest-first.
func (r *historyRing) snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(r.head+i)%len(r.buf)])
	}
	return out
}
