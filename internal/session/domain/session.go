package domain

import "time"

// Session is a login session. Each issued bearer token is bound to exactly one
// session; revoking the session invalidates the token.
type Session struct {
	ID          string
	UserID      string
	TokenDigest string // SHA-256 of the issued token
	ExpiresAt   time.Time
	RevokedAt   *time.Time // nil when not revoked
	LastSeenAt  *time.Time
	CreatedAt   time.Time
}

// IsActive reports whether the session is neither revoked nor expired at now.
func (s *Session) IsActive(now time.Time) bool {
	if s == nil || s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
