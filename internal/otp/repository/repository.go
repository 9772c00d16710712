package repository

import (
	"context"
	"errors"
	"time"

	"account-service/internal/db"
	"account-service/internal/otp/domain"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 10 * time.Minute

// ErrAlreadyConsumed is returned by ConsumeForReset when the matched code row
// was deleted by a concurrent reset before this one could claim it.
var ErrAlreadyConsumed = errors.New("one-time code already consumed")

// ApplyFunc performs the credential update inside the consume unit of work.
// q is the open transaction, or nil for stores without one.
type ApplyFunc func(ctx context.Context, q db.Querier) error

// Repository defines persistence for one-time codes.
type Repository interface {
	Create(ctx context.Context, c *domain.OneTimeCode) error
	// GetByUserAndCode returns the newest record for (userID, code), or nil if none.
	GetByUserAndCode(ctx context.Context, userID, code string) (*domain.OneTimeCode, error)
	DeleteByUser(ctx context.Context, userID string) error
	// ConsumeForReset atomically deletes the code row codeID, runs apply, then deletes
	// every remaining code of userID. Nothing is kept if any step fails.
	ConsumeForReset(ctx context.Context, userID, codeID string, apply ApplyFunc) error
}
