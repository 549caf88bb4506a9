package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/core"
	"github.com/avorin/huddle/internal/domain"
)

const writeWait = 5 * time.Second

func encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	return core.Frame(b), err
}

func (ctl *Controller) writePump(ctx context.Context, handle domain.Handle, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("handle", string(handle)).Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, handle domain.Handle, c *wsConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("handle", string(handle)).Msg("readPump closing")
		ctl.Coord.Disconnect(handle)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("handle", string(handle)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "ws").Str("handle", string(handle)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(ctx, handle, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, handle domain.Handle, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case domain.EventJoin:
		ctl.handleJoin(ctx, handle, c, data)
	case domain.EventLeave:
		ctl.handleLeave(handle, c)
	case domain.EventMessage:
		ctl.handleMessage(handle, c, data)
	case domain.EventSignal:
		ctl.handleSignal(handle, c, data)
	case domain.EventPing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}
