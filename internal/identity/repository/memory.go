package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"account-service/internal/db"
	"account-service/internal/identity/domain"
)

// MemoryRepository is an in-memory Repository for tests. The Querier argument
// of SetPasswordHash is ignored.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]*domain.Identity // key: user_id + "/" + provider
}

// NewMemoryRepository returns an empty in-memory identity repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Identity)}
}

func key(userID string, provider domain.IdentityProvider) string {
	return userID + "/" + string(provider)
}

func (r *MemoryRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.m[key(userID, provider)]
	if !ok {
		return nil, nil
	}
	c := *i
	return &c, nil
}

func (r *MemoryRepository) Create(ctx context.Context, i *domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *i
	r.m[key(i.UserID, i.Provider)] = &c
	return nil
}

func (r *MemoryRepository) SetPasswordHash(ctx context.Context, _ db.Querier, userID, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(userID, domain.IdentityProviderLocal)
	if i, ok := r.m[k]; ok {
		i.PasswordHash = passwordHash
		i.UpdatedAt = at
		return nil
	}
	r.m[k] = &domain.Identity{
		ID:           uuid.New().String(),
		UserID:       userID,
		Provider:     domain.IdentityProviderLocal,
		ProviderID:   userID,
		PasswordHash: passwordHash,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	return nil
}
