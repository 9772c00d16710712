package repository

import (
	"context"
	"sync"

	"account-service/internal/otp/domain"
)

// MemoryRepository is an in-memory Repository. ConsumeForReset holds the store
// lock for the whole unit of work so concurrent consumers of one code see
// exactly one winner.
type MemoryRepository struct {
	mu    sync.Mutex
	codes []*domain.OneTimeCode
}

// NewMemoryRepository returns an empty in-memory code repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, c *domain.OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.codes = append(r.codes, &cp)
	return nil
}

func (r *MemoryRepository) GetByUserAndCode(ctx context.Context, userID, code string) (*domain.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *domain.OneTimeCode
	for _, c := range r.codes {
		if c.UserID == userID && c.Code == code {
			if found == nil || c.CreatedAt.After(found.CreatedAt) {
				found = c
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteByUserLocked(userID)
	return nil
}

func (r *MemoryRepository) ConsumeForReset(ctx context.Context, userID, codeID string, apply ApplyFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := -1
	for i, c := range r.codes {
		if c.ID == codeID && c.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrAlreadyConsumed
	}
	if err := apply(ctx, nil); err != nil {
		return err
	}
	r.deleteByUserLocked(userID)
	return nil
}

// CountByUser returns how many codes are stored for userID.
func (r *MemoryRepository) CountByUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.codes {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

func (r *MemoryRepository) deleteByUserLocked(userID string) {
	kept := r.codes[:0]
	for _, c := range r.codes {
		if c.UserID != userID {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(r.codes); i++ {
		r.codes[i] = nil
	}
	r.codes = kept
}
