// Package handler exposes the services over HTTP with gin.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/auth"
	"gotimer/backend/internal/metrics"
	"gotimer/backend/internal/service"
	"gotimer/backend/internal/session"
)

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	accounts *service.AccountService
	games    *service.GameService
	moves    *service.MoveService
	stats    *service.StatsService
	sessions *session.Manager
	metrics  *metrics.Metrics
}

// Deps are the collaborators of a Handler. Metrics may be nil.
type Deps struct {
	Accounts *service.AccountService
	Games    *service.GameService
	Moves    *service.MoveService
	Stats    *service.StatsService
	Sessions *session.Manager
	Metrics  *metrics.Metrics
}

// New creates a Handler.
func New(d Deps) *Handler {
	m := d.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		accounts: d.Accounts,
		games:    d.Games,
		moves:    d.Moves,
		stats:    d.Stats,
		sessions: d.Sessions,
		metrics:  m,
	}
}

// region --- DTOs ---

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse is the envelope of operations that only report success.
type MessageResponse struct {
	Message string `json:"message" example:"Logged out successfully"`
}

// endregion

// fail writes the client-safe form of err. Internal causes are logged only.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := apperr.Public(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

// commit persists session changes. It reports false after writing a 500.
func (h *Handler) commit(c *gin.Context, sess *session.Session) bool {
	if err := h.sessions.Commit(c, sess); err != nil {
		h.fail(c, apperr.Internal("Internal server error", err))
		return false
	}
	return true
}

// commitAfterWrite persists session changes for operations whose database
// write has already committed. A session store failure is logged and the
// operation's own result is still returned.
func (h *Handler) commitAfterWrite(c *gin.Context, sess *session.Session) {
	if err := h.sessions.Commit(c, sess); err != nil {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to commit session after write")
	}
}

// bind decodes an optional JSON body into dst. An empty body leaves dst
// untouched.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return false
	}
	return true
}

func currentSession(c *gin.Context) *session.Session {
	return auth.Session(c)
}
