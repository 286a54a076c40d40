// Package session holds the per-request identity and its server-side storage.
package session

import "strconv"

// Identity is who a session belongs to: either Guest or Registered.
// A nil Identity means the session is anonymous.
type Identity interface {
	// UserID is the value exposed to clients as user_id.
	UserID() any
	DisplayName() string
	IsGuest() bool

	sealed()
}

// Guest is an unpersisted identity generated for a single browser session.
type Guest struct {
	ID   string
	Name string
}

func (g Guest) UserID() any         { return g.ID }
func (g Guest) DisplayName() string { return g.Name }
func (g Guest) IsGuest() bool       { return true }
func (Guest) sealed()               {}

// Registered is a session bound to an account row.
type Registered struct {
	AccountID uint
	Username  string
}

func (r Registered) UserID() any         { return r.AccountID }
func (r Registered) DisplayName() string { return r.Username }
func (r Registered) IsGuest() bool       { return false }
func (Registered) sealed()               {}

// record is the stored form of an identity.
type record struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsGuest  bool   `json:"is_guest"`
}

func toRecord(id Identity) record {
	switch v := id.(type) {
	case Guest:
		return record{UserID: v.ID, Username: v.Name, IsGuest: true}
	case Registered:
		return record{UserID: strconv.FormatUint(uint64(v.AccountID), 10), Username: v.Username}
	}
	return record{}
}

func (r record) identity() (Identity, error) {
	if r.IsGuest {
		return Guest{ID: r.UserID, Name: r.Username}, nil
	}
	id, err := strconv.ParseUint(r.UserID, 10, 0)
	if err != nil {
		return nil, err
	}
	return Registered{AccountID: uint(id), Username: r.Username}, nil
}
