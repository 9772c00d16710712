package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the core account entity. Email is unique case-insensitively; Phone is unique when set.
type User struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	Phone     string // optional; E.164-ish, digits with an optional leading '+'
	IsStaff   bool
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

const (
	MaxUsernameLen = 150
	MinUsernameLen = 3
	MaxPhoneLen    = 15
)

// IsActive reports whether the user may log in.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// FullName returns "first last", trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if n := len(u.Username); n < MinUsernameLen || n > MaxUsernameLen {
		return errors.New("username must be between 3 and 150 characters")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if len(u.Phone) > MaxPhoneLen {
		return errors.New("phone number must be at most 15 characters")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
