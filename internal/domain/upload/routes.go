package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public upload routes. None of them require
// authentication.
func RegisterRoutes(r gin.IRouter, h *Handler) {
	r.POST("/api/upload", h.Upload)
	r.GET("/api/uploaded-files", h.ListUploaded)
	r.GET("/download-upload/:id", h.Download)
}
