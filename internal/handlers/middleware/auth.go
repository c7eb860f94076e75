package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/handlers/render"
	"github.com/superapp/nutrilife/internal/handlers/userctx"
	"github.com/superapp/nutrilife/internal/models"
)

type tokenValidator interface {
	Validate(ctx context.Context, accessToken string) (models.IdentityClaims, error)
}

// BearerToken extracts the token from the Authorization header.
// Returns an empty string when the header is missing or not a Bearer scheme
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware validates the bearer token and stores the decoded identity
// in the request context. Requests fail with 401 on any token problem and
// with 503 when the revocation ledger can not be reached
func AuthMiddleware(v tokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := v.Validate(r.Context(), token)
			switch {
			case errors.Is(err, apperrors.ErrStoreUnavailable):
				render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				return
			case err != nil:
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose identity does not carry the ADMIN role.
// Must be mounted after AuthMiddleware
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok || identity.Role != models.RoleAdmin {
			render.ServiceError(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
