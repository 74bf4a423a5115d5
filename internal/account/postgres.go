package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dablu757/fast-auth-guard/internal/db"
)

const pqUniqueViolation = "23505"

// PostgresStore is the canonical account store. The users table
// carries a unique index on LOWER(email); that index, plus the
// conflict mapping in Create, is what makes concurrent first-time
// logins for one email collapse to a single account.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, NormalizeEmail(email))
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.findOne(ctx, `
		SELECT id, email, display_name, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg string) (*Account, error) {
	var a Account
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.DisplayName, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account: query user: %w", err)
	}

	if err := s.loadIdentities(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) loadIdentities(ctx context.Context, a *Account) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, provider_user_id
		FROM identities
		WHERE user_id = $1
	`, a.ID)
	if err != nil {
		return fmt.Errorf("account: query identities: %w", err)
	}
	defer rows.Close()

	a.LinkedIdentities = make(map[string]string)
	for rows.Next() {
		var provider, subject string
		if err := rows.Scan(&provider, &subject); err != nil {
			return fmt.Errorf("account: scan identity: %w", err)
		}
		a.LinkedIdentities[provider] = subject
	}
	return rows.Err()
}

// Create inserts the account and its linked identities in one
// transaction, so an aborted login never leaves a user row without
// its identity mapping. A duplicate email maps to ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, a *Account) (*Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("account: begin: %w", err)
	}
	defer tx.Rollback()

	created := *a
	created.Email = NormalizeEmail(a.Email)

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (id, email, display_name)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, created.ID, created.Email, created.DisplayName).Scan(&created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("account: insert user: %w", err)
	}

	for provider, subject := range a.LinkedIdentities {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO identities (user_id, provider, provider_user_id)
			VALUES ($1, $2, $3)
		`, created.ID, provider, subject)
		if err != nil {
			return nil, fmt.Errorf("account: insert identity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("account: commit: %w", err)
	}
	return &created, nil
}

// Update upserts the linked identities, last write wins per provider.
func (s *PostgresStore) Update(ctx context.Context, a *Account) (*Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("account: begin: %w", err)
	}
	defer tx.Rollback()

	for provider, subject := range a.LinkedIdentities {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO identities (user_id, provider, provider_user_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, provider)
			DO UPDATE SET provider_user_id = EXCLUDED.provider_user_id,
			              updated_at = NOW()
		`, a.ID, provider, subject)
		if err != nil {
			return nil, fmt.Errorf("account: upsert identity: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET updated_at = NOW() WHERE id = $1
	`, a.ID)
	if err != nil {
		return nil, fmt.Errorf("account: touch user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("account: commit: %w", err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
