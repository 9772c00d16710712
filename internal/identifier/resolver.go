// Package identifier classifies a caller-supplied email or phone number and
// resolves it to a user.
package identifier

import (
	"context"
	"errors"
	"strings"

	userdomain "account-service/internal/user/domain"
)

var (
	// ErrUserNotFound is returned when no user matches the identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidIdentifierFormat is returned for values that are neither email-shaped nor digit-only.
	ErrInvalidIdentifierFormat = errors.New("identifier must be an email address or phone number")
)

// Kind is the identifier's classification.
type Kind string

const (
	KindEmail Kind = "email"
	KindPhone Kind = "phone"
)

// Classify returns KindEmail when identifier contains "@", KindPhone when it is
// digits with an optional leading "+", and ErrInvalidIdentifierFormat otherwise.
func Classify(identifier string) (Kind, error) {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return "", ErrInvalidIdentifierFormat
	}
	if strings.Contains(s, "@") {
		return KindEmail, nil
	}
	digits := strings.TrimPrefix(s, "+")
	if digits == "" {
		return "", ErrInvalidIdentifierFormat
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrInvalidIdentifierFormat
		}
	}
	return KindPhone, nil
}

// UserDirectory is the read side of the user store the resolver needs.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByPhone(ctx context.Context, phone string) (*userdomain.User, error)
	FindForLogin(ctx context.Context, identifier string) (*userdomain.User, error)
}

// Resolver maps identifiers to users. Reset and login use different matching
// rules and are kept as separate calls.
type Resolver struct {
	users UserDirectory
}

// NewResolver returns a Resolver reading from users.
func NewResolver(users UserDirectory) *Resolver {
	return &Resolver{users: users}
}

// ResolveForReset matches email case-insensitively and phone exactly.
func (r *Resolver) ResolveForReset(ctx context.Context, identifier string) (*userdomain.User, error) {
	identifier = strings.TrimSpace(identifier)
	kind, err := Classify(identifier)
	if err != nil {
		return nil, err
	}
	var u *userdomain.User
	switch kind {
	case KindEmail:
		u, err = r.users.GetByEmail(ctx, identifier)
	default:
		u, err = r.users.GetByPhone(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ResolveForLogin matches a phone containing identifier, or an email equal to it
// ignoring case. The earliest-registered user wins.
func (r *Resolver) ResolveForLogin(ctx context.Context, identifier string) (*userdomain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}
	u, err := r.users.FindForLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
