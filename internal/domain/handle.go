package domain

import "github.com/google/uuid"

// Handle is an opaque, process-unique identifier for one live client
// channel. Nothing outside the registry inspects its representation.
type Handle string

func NewHandle() Handle {
	return Handle(uuid.NewString())
}
