// Package service implements the account, game, move and statistics
// operations. Every method takes the caller's *session.Session explicitly and
// returns *apperr.Error values only.
package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/session"
)

const msgNotAuthenticated = "Not authenticated"

// Clock returns the current time. Services stamp rows in UTC.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// requireSession fails with an auth error for anonymous sessions.
func requireSession(sess *session.Session) error {
	if sess == nil || !sess.Authenticated() {
		return apperr.Auth(msgNotAuthenticated)
	}
	return nil
}

// registeredOnly fails for anonymous sessions and, with forbidden as the
// message, for guests.
func registeredOnly(sess *session.Session, forbidden string) (session.Registered, error) {
	if err := requireSession(sess); err != nil {
		return session.Registered{}, err
	}
	reg, ok := sess.Registered()
	if !ok {
		return session.Registered{}, apperr.Forbidden(forbidden)
	}
	return reg, nil
}

// internal passes application errors through and turns anything else into a
// generic internal error carrying msg.
func internal(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	log.Error().Err(err).Msg(msg)
	return apperr.Internal(msg, err)
}
