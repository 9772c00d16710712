package repository

import (
	"context"
	"time"

	"account-service/internal/db"
	"account-service/internal/identity/domain"
)

// Repository defines persistence for identities.
type Repository interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	// SetPasswordHash upserts the user's local identity with passwordHash.
	// When q is non-nil the write runs on it (e.g. an open transaction).
	SetPasswordHash(ctx context.Context, q db.Querier, userID, passwordHash string, at time.Time) error
}
