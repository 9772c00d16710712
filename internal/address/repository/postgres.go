package repository

import (
	"context"
	"database/sql"
	"errors"

	"account-service/internal/address/domain"
	"account-service/internal/db"
)

const addressColumns = `id, user_id, receiver_name, phone_number, alternate_phone_number,
	address_line_1, address_line_2, city, state, postal_code, country,
	address_type, is_default, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an address repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+addressColumns+` FROM addresses
		WHERE user_id = $1 ORDER BY is_default DESC, created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID returns the address when it exists and belongs to userID, or nil.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses
		WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *PostgresRepository) Create(ctx context.Context, a *domain.Address) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, a); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO addresses (`+addressColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			a.ID, a.UserID, a.ReceiverName, a.PhoneNumber, nullString(a.AlternatePhoneNumber),
			a.AddressLine1, nullString(a.AddressLine2), a.City, a.State, a.PostalCode, a.Country,
			string(a.AddressType), a.IsDefault, a.CreatedAt, a.UpdatedAt)
		return err
	})
}

func (r *PostgresRepository) Update(ctx context.Context, a *domain.Address) (bool, error) {
	var found bool
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, a); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE addresses SET
			receiver_name = $3, phone_number = $4, alternate_phone_number = $5,
			address_line_1 = $6, address_line_2 = $7, city = $8, state = $9,
			postal_code = $10, country = $11, address_type = $12, is_default = $13, updated_at = $14
			WHERE id = $1 AND user_id = $2`,
			a.ID, a.UserID, a.ReceiverName, a.PhoneNumber, nullString(a.AlternatePhoneNumber),
			a.AddressLine1, nullString(a.AddressLine2), a.City, a.State, a.PostalCode, a.Country,
			string(a.AddressType), a.IsDefault, a.UpdatedAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n == 1
		if !found {
			return errNoRow
		}
		return nil
	})
	if errors.Is(err, errNoRow) {
		return false, nil
	}
	return found, err
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// errNoRow rolls back an update whose target row is missing.
var errNoRow = errors.New("address not found")

func clearDefault(ctx context.Context, q db.Querier, a *domain.Address) error {
	if !a.IsDefault {
		return nil
	}
	_, err := q.ExecContext(ctx, `UPDATE addresses SET is_default = FALSE
		WHERE user_id = $1 AND id <> $2 AND is_default`, a.UserID, a.ID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAddress(s rowScanner) (*domain.Address, error) {
	var a domain.Address
	var alt, line2 sql.NullString
	var typ string
	err := s.Scan(&a.ID, &a.UserID, &a.ReceiverName, &a.PhoneNumber, &alt,
		&a.AddressLine1, &line2, &a.City, &a.State, &a.PostalCode, &a.Country,
		&typ, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.AlternatePhoneNumber = alt.String
	a.AddressLine2 = line2.String
	a.AddressType = domain.AddressType(typ)
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
