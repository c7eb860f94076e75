package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const lockUserTokens = `-- name: LockUserTokens
SELECT pg_advisory_xact_lock($1)
`

const revokeUserTokens = `-- name: RevokeUserTokens
UPDATE refresh_tokens
SET revoked = true
WHERE user_id = $1 AND NOT revoked
`

const insertToken = `-- name: InsertToken
INSERT INTO refresh_tokens (token, user_id, created_at, expires_at, revoked)
VALUES ($1, $2, $3, $4, $5)
RETURNING token, user_id, created_at, expires_at, revoked
`

// Issue revokes every usable token of the user and inserts the new one in the
// same transaction. The advisory lock is keyed by user id, so concurrent
// issues for one user serialize and the one-usable-token-per-user invariant
// holds; the old token stays usable until the new one is durably written
func (r *RefreshTokenRepo) Issue(ctx context.Context, token models.RefreshToken) (saved models.RefreshToken, err error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return saved, fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, lockUserTokens, token.UserID); err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	if _, err = tx.Exec(ctx, revokeUserTokens, token.UserID); err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	rows, _ := tx.Query(ctx, insertToken, token.Token, token.UserID, token.CreatedAt, token.ExpiresAt, token.Revoked)
	saved, err = pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const getToken = `-- name: GetToken
SELECT token, user_id, created_at, expires_at, revoked
FROM refresh_tokens
WHERE token = $1
`

// Get returns the token even if it is revoked or expired
// The service decides what an unusable token means
func (r *RefreshTokenRepo) Get(ctx context.Context, token string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, token)
	t, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, pgx.ErrNoRows):
		return t, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeToken
UPDATE refresh_tokens
SET revoked = true
WHERE token = $1
`

// Revoke is idempotent: revoking an unknown or already revoked token is a no-op
func (r *RefreshTokenRepo) Revoke(ctx context.Context, token string) error {
	if _, err := r.DB.Exec(ctx, revokeToken, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const revokeAllForUser = `-- name: RevokeAllForUser
UPDATE refresh_tokens
SET revoked = true
WHERE user_id = $1 AND NOT revoked
`

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	if _, err := r.DB.Exec(ctx, revokeAllForUser, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteToken = `-- name: DeleteToken
DELETE FROM refresh_tokens
WHERE token = $1
`

func (r *RefreshTokenRepo) Delete(ctx context.Context, token string) error {
	if _, err := r.DB.Exec(ctx, deleteToken, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteExpiredTokens = `-- name: DeleteExpiredTokens
DELETE FROM refresh_tokens
WHERE expires_at < $1
`

// DeleteExpired purges tokens past expiry; meant for the periodic sweeper,
// not for the request path
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredTokens, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.Revoked)
	return t, err
}
