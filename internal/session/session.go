package session

// Session is the state of one client session for the duration of a request.
// Services change it through SetIdentity and Clear; the Manager persists the
// change when the handler commits it.
type Session struct {
	id       string
	identity Identity
	dirty    bool
	rotate   bool
}

// New returns an anonymous session that has not been stored yet.
func New() *Session {
	return &Session{}
}

// Restore returns a stored session.
func Restore(id string, identity Identity) *Session {
	return &Session{id: id, identity: identity}
}

// ID is the store key, empty until the session is first committed.
func (s *Session) ID() string { return s.id }

// Identity returns the current identity or nil when anonymous.
func (s *Session) Identity() Identity { return s.identity }

// Authenticated reports whether the session carries any identity.
func (s *Session) Authenticated() bool { return s.identity != nil }

// Registered returns the account identity, if the session has one.
func (s *Session) Registered() (Registered, bool) {
	r, ok := s.identity.(Registered)
	return r, ok
}

// SetIdentity replaces the identity. Switching to a different principal
// rotates the session id on commit.
func (s *Session) SetIdentity(id Identity) {
	if !samePrincipal(s.identity, id) {
		s.rotate = true
	}
	s.identity = id
	s.dirty = true
}

// Clear drops the identity. It is safe to call on an anonymous session.
func (s *Session) Clear() {
	s.identity = nil
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

func samePrincipal(a, b Identity) bool {
	switch x := a.(type) {
	case Guest:
		y, ok := b.(Guest)
		return ok && x.ID == y.ID
	case Registered:
		y, ok := b.(Registered)
		return ok && x.AccountID == y.AccountID
	}
	return false
}
