package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/app"
	"github.com/avorin/huddle/internal/domain"
)

func (ctl *Controller) handleJoin(
	ctx context.Context,
	handle domain.Handle,
	conn *wsConn,
	data []byte,
) {
	type joinPayload struct {
		Type          string `json:"type"`
		Room          string `json:"room"`
		ParticipantID string `json:"participant_id,omitempty"`
		Name          string `json:"name,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	roomID, err := domain.ParseRoomID(p.Room)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	log.Info().Str("module", "ws").Str("handle", string(handle)).Str("room", string(roomID)).Msg("join")
	err = ctl.Coord.Join(ctx, handle, roomID, domain.ParticipantID(p.ParticipantID), p.Name)
	if errors.Is(err, app.ErrAlreadyMember) {
		ctl.sendError(conn, "already_member")
		return
	}
	if err != nil {
		ctl.sendError(conn, err.Error())
	}
}

// handleLeave leaves the current room; the connection itself stays up.
func (ctl *Controller) handleLeave(handle domain.Handle, conn *wsConn) {
	log.Info().Str("module", "ws").Str("handle", string(handle)).Msg("leave")
	ctl.Coord.Leave(handle)
	ctl.sendJSON(conn, map[string]any{
		"type": "left",
	})
}
