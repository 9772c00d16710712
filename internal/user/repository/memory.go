package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"account-service/internal/user/domain"
)

// MemoryRepository is an in-memory Repository used by tests and the seed dry-run.
// Stored users are copied on the way in and out.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.User
}

// NewMemoryRepository returns an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*domain.User)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(func(u *domain.User) bool { return u.Username == username }), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.first(func(u *domain.User) bool { return u.Phone != "" && u.Phone == phone }), nil
}

func (r *MemoryRepository) FindForLogin(ctx context.Context, identifier string) (*domain.User, error) {
	needle := strings.ToLower(identifier)
	return r.first(func(u *domain.User) bool {
		return (u.Phone != "" && strings.Contains(strings.ToLower(u.Phone), needle)) ||
			strings.EqualFold(u.Email, identifier)
	}), nil
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ID == u.ID || existing.Username == u.Username ||
			strings.EqualFold(existing.Email, u.Email) ||
			(u.Phone != "" && existing.Phone == u.Phone) {
			return ErrDuplicate
		}
	}
	r.byID[u.ID] = clone(u)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok {
		return nil
	}
	cur.FirstName = u.FirstName
	cur.LastName = u.LastName
	cur.IsStaff = u.IsStaff
	cur.Status = u.Status
	cur.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	r.mu.RLock()
	all := r.sortedLocked()
	r.mu.RUnlock()
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) first(match func(*domain.User) bool) *domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.sortedLocked() {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *MemoryRepository) sortedLocked() []*domain.User {
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clone(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
