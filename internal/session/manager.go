package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gotimer/backend/pkg/jwt"
)

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Manager moves sessions between the cookie and the Store.
type Manager struct {
	store  Store
	signer *jwt.Signer
	cookie CookieOptions
}

// NewManager returns a Manager that signs cookie values with signer.
func NewManager(store Store, signer *jwt.Signer, cookie CookieOptions) *Manager {
	return &Manager{store: store, signer: signer, cookie: cookie}
}

// Load resolves the request's session. A missing, tampered or expired cookie
// yields a fresh anonymous session; only store failures are returned.
func (m *Manager) Load(c *gin.Context) (*Session, error) {
	value, err := c.Cookie(m.cookie.Name)
	if err != nil || value == "" {
		return New(), nil
	}

	id, err := m.signer.ParseToken(value)
	if err != nil {
		return New(), nil
	}

	identity, err := m.store.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	return Restore(id, identity), nil
}

// Commit persists a changed session and writes the matching cookie. It must
// run before the response body is written. A cleared session always gets an
// expired cookie, even when removing it from the store fails.
func (m *Manager) Commit(c *gin.Context, s *Session) error {
	if !s.Dirty() {
		return nil
	}
	ctx := c.Request.Context()

	if s.identity == nil {
		m.expireCookie(c)
	}
	if s.identity == nil || s.rotate {
		if s.id != "" {
			if err := m.store.Delete(ctx, s.id); err != nil {
				return err
			}
		}
		s.id = ""
	}

	if s.identity == nil {
		s.dirty, s.rotate = false, false
		return nil
	}

	if s.id == "" {
		s.id = uuid.NewString()
	}
	if err := m.store.Save(ctx, s.id, s.identity, m.cookie.TTL); err != nil {
		return err
	}

	token, err := m.signer.GenerateToken(s.id)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, token, int(m.cookie.TTL.Seconds()), "/", "", m.cookie.Secure, true)
	s.dirty, s.rotate = false, false

	log.Debug().Str("session", s.id).Bool("guest", s.identity.IsGuest()).Msg("session committed")
	return nil
}

func (m *Manager) expireCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
}
