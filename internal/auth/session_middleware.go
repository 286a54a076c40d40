// Package auth provides the gin middlewares that attach the caller's session
// to each request.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gotimer/backend/internal/session"
)

const sessionKey = "session"

// LoadSession resolves the session cookie and stores the session in the gin
// context. A missing or invalid cookie yields an anonymous session.
func LoadSession(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := manager.Load(c)
		if err != nil {
			log.Error().Err(err).Msg("failed to load session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// Session returns the request's session. Without LoadSession in the chain it
// returns a fresh anonymous session.
func Session(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	return session.New()
}
