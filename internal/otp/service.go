// Package otp issues and verifies the 6-digit codes used for password reset.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"account-service/internal/otp/domain"
	"account-service/internal/otp/repository"
)

var (
	// ErrInvalidCode is returned when no code record matches the user and code,
	// or when the matched record was consumed by a concurrent reset.
	ErrInvalidCode = errors.New("invalid OTP")
	// ErrExpired is returned when the matched code is past its expiry.
	ErrExpired = errors.New("OTP has expired")
)

// Service issues, verifies, and consumes one-time codes.
type Service struct {
	repo repository.Repository
	gen  Generator
	ttl  time.Duration
	nowF func() time.Time
}

// NewService returns a Service backed by repo. A nil gen selects RangeGenerator.
func NewService(repo repository.Repository, gen Generator) *Service {
	if gen == nil {
		gen = RangeGenerator{}
	}
	return &Service{
		repo: repo,
		gen:  gen,
		ttl:  repository.DefaultTTL,
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service clock. Used by tests to simulate elapsed time.
func (s *Service) WithClock(nowF func() time.Time) *Service {
	s.nowF = nowF
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.nowF()
}

// Issue generates and persists a new code for userID. Earlier codes are left in place.
func (s *Service) Issue(ctx context.Context, userID string) (*domain.OneTimeCode, error) {
	code, err := s.gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.nowF()
	c := &domain.OneTimeCode{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}
	return c, nil
}

// InvalidateAll deletes every outstanding code for userID.
func (s *Service) InvalidateAll(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}

// Verify checks code against the user's stored codes. It never deletes a record,
// including an expired one.
func (s *Service) Verify(ctx context.Context, userID, code string) (*domain.OneTimeCode, error) {
	c, err := s.repo.GetByUserAndCode(ctx, userID, code)
	if err != nil {
		return nil, fmt.Errorf("lookup code: %w", err)
	}
	if c == nil {
		return nil, ErrInvalidCode
	}
	if c.IsExpired(s.nowF()) {
		return nil, ErrExpired
	}
	return c, nil
}

// Consume claims the verified code and runs apply in the same unit of work,
// then removes all of the user's codes. A code already claimed by another
// request yields ErrInvalidCode.
func (s *Service) Consume(ctx context.Context, c *domain.OneTimeCode, apply repository.ApplyFunc) error {
	err := s.repo.ConsumeForReset(ctx, c.UserID, c.ID, apply)
	if errors.Is(err, repository.ErrAlreadyConsumed) {
		return ErrInvalidCode
	}
	return err
}
