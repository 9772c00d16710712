package repository

import (
	"context"
	"sort"
	"sync"

	"account-service/internal/address/domain"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]*domain.Address
}

// NewMemoryRepository returns an empty in-memory address repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Address)}
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Address
	for _, a := range r.m {
		if a.UserID == userID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.m[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearDefaultLocked(a)
	c := *a
	r.m[a.ID] = &c
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, a *domain.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.m[a.ID]
	if !ok || cur.UserID != a.UserID {
		return false, nil
	}
	r.clearDefaultLocked(a)
	c := *a
	c.CreatedAt = cur.CreatedAt
	r.m[a.ID] = &c
	return true, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.m[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	delete(r.m, id)
	return true, nil
}

func (r *MemoryRepository) clearDefaultLocked(a *domain.Address) {
	if !a.IsDefault {
		return
	}
	for id, other := range r.m {
		if other.UserID == a.UserID && id != a.ID {
			other.IsDefault = false
		}
	}
}
