package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"burnbin/internal/pkg/jwt"
)

func protectedRouter(t *testing.T, jwtService *jwt.Service, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(OperatorAuth(jwtService), RequireRole(role))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject": c.GetString(ContextSubject),
			"role":    c.GetString(ContextRole),
		})
	})
	return router
}

func call(router http.Handler, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestOperatorAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	token, err := jwtService.GenerateToken("operator", jwt.RoleOperator)
	assert.NoError(t, err)

	w := call(protectedRouter(t, jwtService, jwt.RoleOperator), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subject":"operator","role":"operator"}`, w.Body.String())
}

func TestOperatorAuth_InvalidToken(t *testing.T) {
	other := jwt.New("other-secret", time.Hour)
	token, _ := other.GenerateToken("operator", jwt.RoleOperator)
	router := protectedRouter(t, jwt.New("secret", time.Hour), jwt.RoleOperator)

	for _, header := range []string{"Bearer invalid-jwt-here", "Bearer " + token} {
		w := call(router, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid or expired token"}`, w.Body.String())
	}
}

func TestOperatorAuth_ExpiredToken(t *testing.T) {
	jwtService := jwt.New("secret", -time.Minute)
	token, _ := jwtService.GenerateToken("operator", jwt.RoleOperator)

	w := call(protectedRouter(t, jwtService, jwt.RoleOperator), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOperatorAuth_NoToken(t *testing.T) {
	w := call(protectedRouter(t, jwt.New("secret", time.Hour), jwt.RoleOperator), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
}

func TestOperatorAuth_WrongFormat(t *testing.T) {
	w := call(protectedRouter(t, jwt.New("secret", time.Hour), jwt.RoleOperator), "Basic dGVzdA==")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authorization header must be 'Bearer <token>'"}`, w.Body.String())
}

func TestRequireRole_WrongRole(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)
	token, _ := jwtService.GenerateToken("viewer", "viewer")

	w := call(protectedRouter(t, jwtService, jwt.RoleOperator), "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
