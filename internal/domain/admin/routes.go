package admin

import (
	"github.com/gin-gonic/gin"

	"burnbin/internal/middleware"
	"burnbin/internal/pkg/jwt"
)

// RegisterRoutes mounts the operator API under /api/admin. Everything but
// login requires an operator token.
func RegisterRoutes(r gin.IRouter, h *Handler, jwtService *jwt.Service) {
	admin := r.Group("/api/admin")
	admin.POST("/login", h.Login)

	protected := admin.Group("")
	protected.Use(middleware.OperatorAuth(jwtService), middleware.RequireRole(jwt.RoleOperator))
	{
		protected.POST("/shared", h.Share)
		protected.DELETE("/shared/:id", h.RemoveShared)
		protected.DELETE("/uploads/:id", h.RemoveUpload)
		protected.POST("/uploads/:id/share", h.PromoteUpload)
		protected.GET("/activity", h.Activity)
		protected.GET("/stats", h.Stats)
		protected.POST("/persist", h.Persist)
	}
}
