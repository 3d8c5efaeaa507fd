package model

import "time"

// Session is the server-side half of a browser login. The browser only holds a
// signed reference to ID.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired reports whether the session is past its lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity is what a request knows about its caller. The zero value is an
// anonymous visitor.
type Identity struct {
	UserID   string
	Username string
}

// LoggedIn is true iff the identity is bound to a user.
func (i Identity) LoggedIn() bool {
	return i.UserID != ""
}
