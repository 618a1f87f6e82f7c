package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"burnbin/internal/pkg/jwt"
	"burnbin/internal/pkg/response"
)

// Context keys set by OperatorAuth.
const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// OperatorAuth validates the bearer token and stores its subject and role
// in the context.
func OperatorAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortError(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.AbortError(c, http.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
