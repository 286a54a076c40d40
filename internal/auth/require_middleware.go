package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireSession rejects anonymous requests with 401.
// It must be used AFTER LoadSession.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Session(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}
