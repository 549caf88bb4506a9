package app

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/core"
	"github.com/avorin/huddle/internal/domain"
)

// Relay forwards signaling envelopes between exactly two participants.
// It is a pure forwarding hop: the envelope payload is never parsed,
// validated, or interpreted. An unresolvable target drops the envelope
// silently; the originating client owns timeout/retry, and stale
// signaling after a peer has left is expected and harmless.
//
// Envelopes from one sender to one target keep send order because the
// relay runs synchronously in the sender's read loop and the target
// has a single ordered send queue. No ordering holds across pairs.
type Relay struct {
	registry *Registry
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{registry: registry}
}

// Relay resolves the target and delivers the envelope unmodified.
// Returns whether delivery was handed to the target's channel.
func (rl *Relay) Relay(env domain.SignalEnvelope, from domain.Handle) bool {
	target, ok := rl.registry.Resolve(env.Target)
	if !ok {
		log.Debug().
			Str("module", "app.relay").
			Str("target", string(env.Target)).
			Str("kind", env.Kind).
			Msg("target unresolved, envelope dropped")
		return false
	}
	conn, ok := rl.registry.Conn(target)
	if !ok {
		// Channel gone between resolve and delivery: same as unresolved.
		return false
	}

	frame, err := json.Marshal(domain.SignalEvent{
		Type:    domain.EventSignal,
		From:    from,
		Kind:    env.Kind,
		Payload: env.Payload,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode signal event")
		return false
	}
	if err := conn.TrySend(frame); err != nil {
		if !errors.Is(err, core.ErrClosed) {
			log.Warn().
				Err(err).
				Str("module", "app.relay").
				Str("target", string(target)).
				Msg("signal delivery failed")
		}
		return false
	}
	return true
}
