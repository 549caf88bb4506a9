package domain

import "encoding/json"

// SignalEnvelope is a transient value relayed between exactly two
// participants. Kind and Payload are opaque to the coordinator: it
// routes them unmodified and never interprets WebRTC semantics, so
// evolving signaling formats need no change here.
type SignalEnvelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Target  ParticipantID   `json:"target"`
}
