package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/domain"
)

// handleSignal hands the envelope to the relay. The payload stays an
// uninterpreted blob end to end; a miss on the target drops it with no
// error back to the sender.
func (ctl *Controller) handleSignal(
	handle domain.Handle,
	conn *wsConn,
	data []byte,
) {
	var env domain.SignalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad signal payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if env.Target == "" {
		ctl.sendError(conn, "missing target")
		return
	}
	ctl.Coord.Signal(handle, env)
}
