package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/middleware"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/realtime"
	"github.com/craftlink-lk/craftlink-api/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS layer; the upgrade
	// itself accepts any origin the middleware let through.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS handles GET /api/v1/ws. The JWT middleware has already validated
// the token; each join frame is additionally revalidated against current
// conversation membership, since membership can change while the socket is
// open. Unauthorized joins close the socket with code 4001.
func ServeWS(c *gin.Context) {
	user, err := middleware.CurrentUser(c, config.GetDB())
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not recognized")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed for user %d: %v", user.ID, err)
		return
	}

	hub := GetHub()
	client := realtime.NewClient(conn, user.ID)
	hub.Register(client)
	hub.MarkOpen(client)

	convSvc := services.NewConversationService(config.GetDB())
	defer hub.Remove(client)

	for {
		var frame realtime.ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error for user %d: %v", user.ID, err)
			}
			return
		}

		switch frame.Type {
		case realtime.FrameJoin:
			// Admins pass unconditionally, same as the HTTP surface
			ok := user.Role == models.RoleAdmin
			if !ok {
				ok, err = convSvc.IsParticipant(frame.ConversationID, user.ID)
				if err != nil {
					log.Printf("ws membership check failed for user %d: %v", user.ID, err)
					return
				}
			}
			if !ok {
				deadline := time.Now().Add(time.Second)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(realtime.CloseUnauthorized, "not a participant"), deadline)
				return
			}
			hub.Join(client, frame.ConversationID)
		default:
			// Unknown frame types are ignored so clients can be upgraded
			// ahead of the server.
		}
	}
}
