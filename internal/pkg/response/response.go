package response

import "github.com/gin-gonic/gin"

// Error writes the JSON error body used by every API route: {"error": "..."}.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// AbortError is Error for middleware that must stop the handler chain.
func AbortError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{"error": message})
}

// NotFoundText is used by the binary download routes, which answer in plain text.
func NotFoundText(c *gin.Context) {
	c.String(404, "File not found")
}
