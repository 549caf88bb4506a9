package ws

import "github.com/avorin/huddle/internal/domain"

func (ctl *Controller) handlePing(conn *wsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: domain.EventPong,
	}
	ctl.sendJSON(conn, resp)
}
