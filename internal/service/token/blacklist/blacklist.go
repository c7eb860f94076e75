// Package blacklist keeps identifiers of access tokens revoked before their
// natural expiry. The auth service is the only writer, validation the only
// reader. Entries carry the token's own expiry, so the ledger forgets a token
// once the codec would reject it as expired anyway.
package blacklist

import (
	"context"
	"time"
)

// Ledger of revoked access token ids
// On backend failure IsRevoked must return an error wrapping
// apperrors.ErrStoreUnavailable so callers fail closed, never open
type Ledger interface {
	// Revoke records the token id until the given time; idempotent
	Revoke(ctx context.Context, tokenID string, until time.Time) error

	// IsRevoked reports whether the token id is recorded and still effective
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
