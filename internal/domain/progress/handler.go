package progress

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"burnbin/internal/domain/session"
	"burnbin/internal/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// progress is public and read-only, like the polling endpoint
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Querier is the read side of the session tracker.
type Querier interface {
	Query(id string) (session.DownloadSession, error)
}

type Handler struct {
	hub     *Hub
	tracker Querier
}

func NewHandler(hub *Hub, tracker Querier) *Handler {
	return &Handler{hub: hub, tracker: tracker}
}

// Watch handles GET /ws/download-progress/:sessionId.
func (h *Handler) Watch(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if _, err := h.tracker.Query(sessionID); err != nil {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("progress_ws_upgrade_failed session=%s error=%v", sessionID, err)
		return
	}
	h.hub.Serve(conn, sessionID, h.tracker)
}
