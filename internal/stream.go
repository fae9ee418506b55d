package internal

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CaptionStream answers every text message (a file reference) on the websocket with the body
// /caption would have returned for it.
func (a *App) CaptionStream(c *gin.Context) {
	conn, err := a.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Log.WithError(err).Warn("Failed to upgrade to websocket")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.Log.WithError(err).Warn("Failed to read from ws")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var response any
		result, err := a.Captioner.Caption(ctx, strings.TrimSpace(string(message)))
		if err != nil {
			e := AsError(err)
			a.Log.WithError(e).WithField("kind", e.Kind).Warn("Stream caption failed")
			response = ErrorResponse{Error: e.Body()}
		} else {
			response = result
		}

		if err := conn.WriteJSON(response); err != nil {
			a.Log.WithError(err).Warn("Failed to write to ws")
			return
		}
	}
}
