package core

import "github.com/avorin/huddle/internal/domain"

// PublishResult reports delivery stats/backpressure to the caller.
// Handles whose channel is already gone are silently skipped and do
// not appear in Dropped.
type PublishResult struct {
	SentTo  int
	Dropped []domain.Handle
}
