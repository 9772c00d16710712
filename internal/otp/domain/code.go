package domain

import "time"

// OneTimeCode is a password reset code issued to a user. Codes are never
// updated in place: they are created, read during verification, and deleted
// in bulk once a reset completes.
type OneTimeCode struct {
	ID        string
	UserID    string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether now is strictly after the code's expiry.
// A code verified at exactly ExpiresAt is still valid.
func IsExpired(c *OneTimeCode, now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsExpired reports whether the code has expired at now.
func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return IsExpired(c, now)
}
