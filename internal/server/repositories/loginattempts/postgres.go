// Package loginattempts provides a PostgreSQL-backed repository for the
// failed-login counters used by account and IP lockout.
package loginattempts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/corpopadel/padel-auth/internal/common"
	"github.com/corpopadel/padel-auth/internal/dbx"
	"github.com/corpopadel/padel-auth/internal/server/models"
)

// PostgresRepository works over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the counter for (kind, key) or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, kind models.AttemptKind, key string) (*models.LoginAttempt, error) {
	query := `
		SELECT attempts_count, last_attempt, locked_until
		FROM login_attempts
		WHERE kind = $1 AND key = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, string(kind), key), kind, key)
}

func (r *PostgresRepository) scanOne(row *sql.Row, kind models.AttemptKind, key string) (*models.LoginAttempt, error) {
	a := &models.LoginAttempt{Kind: kind, Key: key}
	var lockedUntil sql.NullTime
	if err := row.Scan(&a.AttemptsCount, &a.LastAttempt, &lockedUntil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		a.LockedUntil = &t
	}
	return a, nil
}

// GetForUpdate returns the counter for (kind, key) locked until the enclosing
// transaction ends, creating an empty one first when missing. Concurrent
// failures on the same key queue behind the lock instead of overwriting each
// other. It must run on a *sql.Tx.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, kind models.AttemptKind, key string, now time.Time) (*models.LoginAttempt, error) {
	ensure := `
		INSERT INTO login_attempts (kind, key, attempts_count, last_attempt)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (kind, key) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, ensure, string(kind), key, now); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query := `
		SELECT attempts_count, last_attempt, locked_until
		FROM login_attempts
		WHERE kind = $1 AND key = $2
		FOR UPDATE
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, string(kind), key), kind, key)
}

// Save upserts the counter.
func (r *PostgresRepository) Save(ctx context.Context, a *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (kind, key, attempts_count, last_attempt, locked_until)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, key) DO UPDATE
		SET attempts_count = EXCLUDED.attempts_count,
		    last_attempt = EXCLUDED.last_attempt,
		    locked_until = EXCLUDED.locked_until
	`
	var lockedUntil sql.NullTime
	if a.LockedUntil != nil {
		lockedUntil = sql.NullTime{Time: *a.LockedUntil, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, string(a.Kind), a.Key, a.AttemptsCount, a.LastAttempt, lockedUntil); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Reset removes the counter; resetting a missing counter is not an error.
func (r *PostgresRepository) Reset(ctx context.Context, kind models.AttemptKind, key string) error {
	query := `
		DELETE FROM login_attempts
		WHERE kind = $1 AND key = $2
	`
	if _, err := r.db.ExecContext(ctx, query, string(kind), key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
