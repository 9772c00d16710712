package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"account-service/internal/db"
	"account-service/internal/otp/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a one-time code repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the code. The code must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.OneTimeCode) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO one_time_codes (id, user_id, code, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`, c.ID, c.UserID, c.Code, c.CreatedAt, c.ExpiresAt)
	return err
}

// GetByUserAndCode returns the newest code row matching user and code, or nil if not found.
func (r *PostgresRepository) GetByUserAndCode(ctx context.Context, userID, code string) (*domain.OneTimeCode, error) {
	var c domain.OneTimeCode
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, code, created_at, expires_at
		FROM one_time_codes WHERE user_id = $1 AND code = $2
		ORDER BY created_at DESC LIMIT 1`, userID, code).
		Scan(&c.ID, &c.UserID, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// DeleteByUser removes every code issued to userID.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM one_time_codes WHERE user_id = $1`, userID)
	return err
}

// ConsumeForReset claims codeID with a conditional delete, applies the credential
// change, and clears the user's remaining codes in one transaction.
func (r *PostgresRepository) ConsumeForReset(ctx context.Context, userID, codeID string, apply ApplyFunc) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM one_time_codes WHERE id = $1 AND user_id = $2`, codeID, userID)
		if err != nil {
			return fmt.Errorf("claim code: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("claim code: %w", err)
		}
		if n == 0 {
			return ErrAlreadyConsumed
		}
		if err := apply(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM one_time_codes WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear codes: %w", err)
		}
		return nil
	})
}
