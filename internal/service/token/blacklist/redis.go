package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/superapp/nutrilife/internal/apperrors"
)

const redisKeyPrefix = "auth:revoked:"

// Redis ledger: one key per revoked token id with a TTL equal to the time
// left until the token's natural expiry, so Redis prunes entries itself
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	err := r.client.Set(ctx, redisKeyPrefix+tokenID, "1", ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}

func (r *Redis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+tokenID).Result()
	if err != nil {
		// Fail closed: the caller must treat this as "cannot validate",
		// never as "not revoked"
		return false, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}

	return n > 0, nil
}
