package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avorin/huddle/internal/app"
	"github.com/avorin/huddle/internal/config"
	"github.com/avorin/huddle/internal/domain"
)

type Controller struct {
	Coord *app.Coordinator
	Cfg   *config.Config
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{Coord: coord, Cfg: cfg}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs one connection lifecycle:
// register, pump events, and on read failure or ctx cancel run the
// implicit leave exactly once via Disconnect.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}

	conn := newWSConn(socket, ctl.Cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	handle := ctl.Coord.Connect(conn, cancel)
	log.Info().Str("module", "ws").Str("handle", string(handle)).Msg("new connection")

	go ctl.writePump(ctx, handle, conn)
	go ctl.readPump(ctx, handle, conn)
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  domain.EventError,
		"error": msg,
	})
}
