package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"burnbin/internal/pkg/response"
)

// RequireRole ensures that the authenticated caller has the specified role.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.AbortError(c, http.StatusUnauthorized, "Role not found in token")
			return
		}
		if role != requiredRole {
			response.AbortError(c, http.StatusForbidden, "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}
