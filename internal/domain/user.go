package domain

import "time"

// User is the analyst record persisted next to the bearer token.
type User struct {
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token the record was built from has expired.
// A zero ExpiresAt never expires.
func (u *User) Expired(now time.Time) bool {
	if u == nil || u.ExpiresAt.IsZero() {
		return false
	}
	return now.After(u.ExpiresAt)
}
