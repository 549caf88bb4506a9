package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/domain"
)

func (ctl *Controller) handleMessage(
	handle domain.Handle,
	conn *wsConn,
	data []byte,
) {
	type messagePayload struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if _, err := ctl.Coord.Message(handle, p.Text); err != nil {
		ctl.sendError(conn, err.Error())
	}
}
