package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/handlers/userctx"
	"github.com/superapp/nutrilife/internal/models"
)

// Allow to use a function as token validator
type validatorFunc func(ctx context.Context, accessToken string) (models.IdentityClaims, error)

func (f validatorFunc) Validate(ctx context.Context, accessToken string) (models.IdentityClaims, error) {
	return f(ctx, accessToken)
}

func TestAuthMiddleware(t *testing.T) {
	// Handler that reports the identity set by the middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		require.True(t, ok, "middleware has to set identity before calling next")

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(identity.Username))
		require.NoError(t, err, "should write username to response")
	})

	get := func(t *testing.T, url string, token string) (*http.Response, string) {
		t.Helper()

		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("auth ok", func(t *testing.T) {
		middleware := AuthMiddleware(validatorFunc(func(ctx context.Context, token string) (models.IdentityClaims, error) {
			require.Equal(t, "valid-token", token, "token from the header should be passed as is")
			return models.IdentityClaims{UserID: 1, Username: "test-user", Role: models.RoleUser}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "valid-token")

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", body)
		require.Equal(t, "test-user", body, "should return username in response")
	})

	t.Run("no header", func(t *testing.T) {
		middleware := AuthMiddleware(validatorFunc(func(ctx context.Context, token string) (models.IdentityClaims, error) {
			t.Error("validator must not be called without a bearer token")
			return models.IdentityClaims{}, nil
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "")

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "Resp: %s", body)
	})

	t.Run("invalid token", func(t *testing.T) {
		middleware := AuthMiddleware(validatorFunc(func(ctx context.Context, token string) (models.IdentityClaims, error) {
			return models.IdentityClaims{}, fmt.Errorf("validation failed: %w", apperrors.ErrTokenExpired)
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "whatever")

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
	})

	t.Run("ledger down returns 503", func(t *testing.T) {
		middleware := AuthMiddleware(validatorFunc(func(ctx context.Context, token string) (models.IdentityClaims, error) {
			return models.IdentityClaims{}, fmt.Errorf("ledger: %w", apperrors.ErrStoreUnavailable)
		}))

		srv := httptest.NewServer(middleware(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "whatever")

		require.Equalf(t, http.StatusServiceUnavailable, resp.StatusCode, "must fail closed, not 401. Resp: %s", body)
	})
}

func TestRequireAdmin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(t *testing.T, identity *models.IdentityClaims) *http.Response {
		t.Helper()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if identity != nil {
			req = req.WithContext(userctx.WithIdentity(req.Context(), *identity))
		}

		rec := httptest.NewRecorder()
		RequireAdmin(handler).ServeHTTP(rec, req)
		return rec.Result()
	}

	t.Run("admin passes", func(t *testing.T) {
		resp := serve(t, &models.IdentityClaims{UserID: 1, Username: "root", Role: models.RoleAdmin})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("user forbidden", func(t *testing.T) {
		resp := serve(t, &models.IdentityClaims{UserID: 2, Username: "mortal", Role: models.RoleUser})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("no identity forbidden", func(t *testing.T) {
		resp := serve(t, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer sometoken", "sometoken"},
		{"case insensitive scheme", "bearer sometoken", "sometoken"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"no token", "Bearer", ""},
		{"extra spaces", "Bearer   sometoken", "sometoken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := http.NewRequest(http.MethodGet, "/test", nil)
			require.NoError(t, err)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			require.Equal(t, tt.want, BearerToken(r))
		})
	}
}
