package repository

import (
	"context"
	"errors"

	"account-service/internal/user/domain"
)

// ErrDuplicate is returned by Create when the username, email, or phone is already taken.
var ErrDuplicate = errors.New("user already exists")

// Repository defines persistence for users. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByEmail matches email exactly, ignoring case.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByPhone matches phone exactly.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// FindForLogin returns the earliest-registered user (created_at, then id) whose phone contains identifier (case-insensitive)
	// or whose email equals identifier ignoring case.
	FindForLogin(ctx context.Context, identifier string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Update persists names, staff flag, and status.
	Update(ctx context.Context, u *domain.User) error
	// List returns users in registration order (created_at, then id).
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}
