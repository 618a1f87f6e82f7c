package progress

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler) {
	r.GET("/ws/download-progress/:sessionId", h.Watch)
}
