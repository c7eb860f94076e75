// Package userctx stores the authenticated identity in the request context.
package userctx

import (
	"context"

	"github.com/superapp/nutrilife/internal/models"
)

type contextKey struct{}

var identityKey = contextKey{}

// WithIdentity returns a copy of ctx that carries the decoded token claims
func WithIdentity(ctx context.Context, identity models.IdentityClaims) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Identity extracts claims set by the auth middleware. ok is false when the
// request was not authenticated
func Identity(ctx context.Context) (identity models.IdentityClaims, ok bool) {
	identity, ok = ctx.Value(identityKey).(models.IdentityClaims)
	return identity, ok
}
