package share

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public download routes.
func RegisterRoutes(r gin.IRouter, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/files", h.ListFiles)
		api.POST("/track-download", h.TrackDownload)
		api.GET("/start-download/:id", h.StartDownload)
		api.GET("/download-progress/:sessionId", h.Progress)
	}

	r.GET("/download/:id", h.Download)
}
