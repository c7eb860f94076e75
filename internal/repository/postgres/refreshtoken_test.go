package postgres

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/models"
	"github.com/superapp/nutrilife/internal/repository"
	"github.com/superapp/nutrilife/internal/testutil"
)

func randomToken(t *testing.T) string {
	t.Helper()

	b := make([]byte, 32)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

func createTestUser(t *testing.T, storage repository.Storage, username string) models.User {
	t.Helper()

	user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword123",
		Role:         models.RoleUser,
	})
	require.NoError(t, err)
	return user
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newToken := func(t *testing.T, userID int64, ttl time.Duration) models.RefreshToken {
		now := time.Now().Truncate(time.Microsecond)
		return models.RefreshToken{
			Token:     randomToken(t),
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
	}

	t.Run("issue ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "issuer")

			token := newToken(t, user.ID, time.Hour)
			saved, err := storage.Refresh().Issue(t.Context(), token)

			require.NoError(t, err)
			assert.Equal(t, token.Token, saved.Token)
			assert.Equal(t, user.ID, saved.UserID)
			assert.False(t, saved.Revoked)
			assert.True(t, saved.Usable(time.Now()))
		})
	})

	t.Run("issue revokes previous tokens", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "rotator")

			first, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, time.Hour))
			require.NoError(t, err)
			second, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, time.Hour))
			require.NoError(t, err)

			got, err := storage.Refresh().Get(t.Context(), first.Token)
			require.NoError(t, err)
			assert.True(t, got.Revoked, "previous token must be revoked on issue")

			got, err = storage.Refresh().Get(t.Context(), second.Token)
			require.NoError(t, err)
			assert.False(t, got.Revoked, "new token must be usable")
		})
	})

	t.Run("issue keeps other users untouched", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			alice := createTestUser(t, storage, "alice")
			bob := createTestUser(t, storage, "bob")

			aliceToken, err := storage.Refresh().Issue(t.Context(), newToken(t, alice.ID, time.Hour))
			require.NoError(t, err)
			_, err = storage.Refresh().Issue(t.Context(), newToken(t, bob.ID, time.Hour))
			require.NoError(t, err)

			got, err := storage.Refresh().Get(t.Context(), aliceToken.Token)
			require.NoError(t, err)
			assert.False(t, got.Revoked, "rotation is per user")
		})
	})

	t.Run("get not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)

			_, err := storage.Refresh().Get(t.Context(), randomToken(t))
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("get returns expired token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "expired")

			issued, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, -time.Minute))
			require.NoError(t, err)

			got, err := storage.Refresh().Get(t.Context(), issued.Token)
			require.NoError(t, err, "expired tokens are returned, the service decides")
			assert.False(t, got.Usable(time.Now()))
		})
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "revoker")

			issued, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, time.Hour))
			require.NoError(t, err)

			require.NoError(t, storage.Refresh().Revoke(t.Context(), issued.Token))
			require.NoError(t, storage.Refresh().Revoke(t.Context(), issued.Token))
			require.NoError(t, storage.Refresh().Revoke(t.Context(), randomToken(t)), "unknown token is a no-op")

			got, err := storage.Refresh().Get(t.Context(), issued.Token)
			require.NoError(t, err)
			assert.True(t, got.Revoked)
		})
	})

	t.Run("revoke all for user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "revokeall")

			issued, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, time.Hour))
			require.NoError(t, err)

			require.NoError(t, storage.Refresh().RevokeAllForUser(t.Context(), user.ID))

			got, err := storage.Refresh().Get(t.Context(), issued.Token)
			require.NoError(t, err)
			assert.True(t, got.Revoked)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "deleter")

			issued, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, time.Hour))
			require.NoError(t, err)

			require.NoError(t, storage.Refresh().Delete(t.Context(), issued.Token))

			_, err = storage.Refresh().Get(t.Context(), issued.Token)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("delete expired", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := NewStorage(tx)
			user := createTestUser(t, storage, "sweeper")

			stale, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, -time.Minute))
			require.NoError(t, err)
			live, err := storage.Refresh().Issue(t.Context(), newToken(t, user.ID, time.Hour))
			require.NoError(t, err)

			deleted, err := storage.Refresh().DeleteExpired(t.Context(), time.Now())

			require.NoError(t, err)
			assert.Equal(t, int64(1), deleted)

			_, err = storage.Refresh().Get(t.Context(), stale.Token)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			_, err = storage.Refresh().Get(t.Context(), live.Token)
			assert.NoError(t, err, "token still in lifetime must survive the sweep")
		})
	})

	t.Run("concurrent issue keeps single usable token", func(t *testing.T) {
		// Runs over the pool, not a test transaction: the advisory lock has
		// to serialize real concurrent transactions
		storage := NewStorage(pg.Pool)
		user := createTestUser(t, storage, "racer")

		const workers = 8

		tokens := make([]models.RefreshToken, workers)
		for i := range tokens {
			tokens[i] = newToken(t, user.ID, time.Hour)
		}

		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = storage.Refresh().Issue(t.Context(), tokens[i])
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		var usable int
		err := pg.Pool.QueryRow(t.Context(),
			"SELECT count(*) FROM refresh_tokens WHERE user_id = $1 AND NOT revoked", user.ID,
		).Scan(&usable)
		require.NoError(t, err)
		assert.Equal(t, 1, usable, "exactly one usable token per user after concurrent issues")
	})
}
