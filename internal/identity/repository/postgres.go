package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"account-service/internal/db"
	"account-service/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndProvider returns the identity for the given user and provider, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	var i domain.Identity
	var p string
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, provider, provider_id, password_hash, created_at, updated_at
		FROM identities WHERE user_id = $1 AND provider = $2`, userID, string(provider)).
		Scan(&i.ID, &i.UserID, &p, &i.ProviderID, &i.PasswordHash, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Provider = domain.IdentityProvider(p)
	return &i, nil
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	return createIdentity(ctx, r.db, i)
}

func createIdentity(ctx context.Context, q db.Querier, i *domain.Identity) error {
	updated := i.UpdatedAt
	if updated.IsZero() {
		updated = i.CreatedAt
	}
	_, err := q.ExecContext(ctx, `INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.UserID, string(i.Provider), i.ProviderID, i.PasswordHash, i.CreatedAt, updated)
	return err
}

// SetPasswordHash upserts the local identity's password hash for userID.
func (r *PostgresRepository) SetPasswordHash(ctx context.Context, q db.Querier, userID, passwordHash string, at time.Time) error {
	if q == nil {
		q = r.db
	}
	_, err := q.ExecContext(ctx, `INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $2, $4, $5, $5)
		ON CONFLICT (user_id, provider) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`,
		uuid.New().String(), userID, string(domain.IdentityProviderLocal), passwordHash, at)
	return err
}
