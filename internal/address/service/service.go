// Package service implements owner-scoped address management.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"account-service/internal/address/domain"
	"account-service/internal/address/repository"
)

// ErrNotFound is returned when the address does not exist or belongs to someone else.
var ErrNotFound = errors.New("address not found")

// ValidationError carries every field failure of a rejected address.
type ValidationError struct {
	Fields []domain.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return strings.Join(parts, "; ")
}

// Service manages a user's addresses.
type Service struct {
	repo repository.Repository
	nowF func() time.Time
}

// New returns a Service over repo.
func New(repo repository.Repository) *Service {
	return &Service{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Create validates in and stores it for userID.
func (s *Service) Create(ctx context.Context, userID string, in domain.Address) (*domain.Address, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	now := s.nowF()
	in.ID = uuid.New().String()
	in.UserID = userID
	in.CreatedAt, in.UpdatedAt = now, now
	if err := s.repo.Create(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]*domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	a, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Update replaces every field of the address with in.
func (s *Service) Update(ctx context.Context, userID, id string, in domain.Address) (*domain.Address, error) {
	cur, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if errs := in.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	in.ID, in.UserID, in.CreatedAt = cur.ID, userID, cur.CreatedAt
	in.UpdatedAt = s.nowF()
	ok, err := s.repo.Update(ctx, &in)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &in, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
