package domain

import "time"

// Session binds a browser session id to the bearer token issued by the API.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token behind the session has lapsed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
