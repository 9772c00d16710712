package repository

import (
	"context"

	"account-service/internal/address/domain"
)

// Repository defines persistence for addresses. Every call is scoped to the
// owning user; lookups return (nil, nil) when no row matches.
type Repository interface {
	// ListByUser returns the user's addresses, default first, then oldest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Address, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Address, error)
	// Create inserts a; when a.IsDefault it clears the user's other defaults in the same transaction.
	Create(ctx context.Context, a *domain.Address) error
	// Update replaces a's fields with the same default handling as Create. Returns false when no row matched.
	Update(ctx context.Context, a *domain.Address) (bool, error)
	// Delete returns false when no row matched.
	Delete(ctx context.Context, userID, id string) (bool, error)
}
