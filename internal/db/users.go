package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// UserExists reports whether the user row is present
func (db *DB) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// GetUserName returns the user's display name, or "" if the row is missing
func (db *DB) GetUserName(ctx context.Context, userID uuid.UUID) (string, error) {
	var name string
	err := db.pool.QueryRow(ctx,
		`SELECT name FROM users WHERE id = $1`, userID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return name, nil
}

// EnsureUser auto-provisions the identity row canonical records hang off of.
// The synthetic address is non-deliverable by construction (.invalid TLD). On a
// uniqueness conflict it retries once with a more specific address, then
// re-verifies existence; failure to verify is fatal to the rebuild.
func (db *DB) EnsureUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := db.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	email := fmt.Sprintf("user-%s@placeholder.invalid", userID)
	if err := db.insertPlaceholderUser(ctx, userID, email); err != nil {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
			return fmt.Errorf("failed to provision user %s: %w", userID, err)
		}
		retryEmail := fmt.Sprintf("user-%s-%s@placeholder.invalid", userID, uuid.NewString()[:8])
		if retryErr := db.insertPlaceholderUser(ctx, userID, retryEmail); retryErr != nil {
			if !errors.As(retryErr, &pgErr) || pgErr.Code != uniqueViolation {
				return fmt.Errorf("failed to provision user %s on retry: %w", userID, retryErr)
			}
		}
	}

	exists, err = db.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %s still missing after provisioning", userID)
	}
	return nil
}

func (db *DB) insertPlaceholderUser(ctx context.Context, userID uuid.UUID, email string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, name, email)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		userID, "", email,
	)
	return err
}
