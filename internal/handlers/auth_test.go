package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
	"github.com/superapp/nutrilife/internal/repository"
	"github.com/superapp/nutrilife/internal/repository/postgres"
	"github.com/superapp/nutrilife/internal/service/auth"
	"github.com/superapp/nutrilife/internal/service/nutrition"
	"github.com/superapp/nutrilife/internal/service/profile"
	"github.com/superapp/nutrilife/internal/service/token/blacklist"
	"github.com/superapp/nutrilife/internal/testutil"
)

// startTestServer wires the real services over the given storage with an
// in-process revocation ledger
func startTestServer(t *testing.T, storage repository.Storage) *httptest.Server {
	t.Helper()

	authService, err := auth.NewService(auth.Config{SecretKey: "test-secret-key"},
		storage, blacklist.NewMemory(), logger.NewNoOp())
	require.NoError(t, err)

	router := NewRouter(
		authService,
		profile.NewService(storage),
		nutrition.NewService(storage),
		storage.User(),
		logger.NewNoOp(),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON posts body (when not nil) and decodes the response into a generic map
func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	// Array responses are left undecoded, callers check the status only
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoErrorf(t, json.Unmarshal(raw, &decoded), "response should be json. Resp: %s", raw)
	}

	return resp, decoded
}

func registerUser(t *testing.T, url string, username string) (access string, refresh string) {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, url+"/api/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equalf(t, http.StatusCreated, resp.StatusCode, "registration failed: %v", body)

	return body["accessToken"].(string), body["refreshToken"].(string)
}

func Test_AuthEndpoints(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)
	srv := startTestServer(t, storage)

	t.Run("health", func(t *testing.T) {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/auth/health", "", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("register", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
				"username": "fresh",
				"email":    "fresh@example.com",
				"password": "password123",
			})

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "Resp: %v", body)
			assert.NotEmpty(t, body["accessToken"])
			assert.NotEmpty(t, body["refreshToken"])
			assert.Equal(t, "Bearer", body["tokenType"])
			assert.Equal(t, "fresh", body["username"])
			assert.Equal(t, "USER", body["role"])
			assert.Greater(t, body["expiresIn"], float64(0))
		})

		t.Run("duplicate", func(t *testing.T) {
			registerUser(t, srv.URL, "taken")

			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
				"username": "taken",
				"email":    "other@example.com",
				"password": "password123",
			})
			require.Equal(t, http.StatusConflict, resp.StatusCode)
		})

		t.Run("validation failure", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]any{
				"username": "x",
				"email":    "not-an-email",
				"password": "short",
			})

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "validation_failed", body["error"])

			fields := body["fields"].(map[string]any)
			assert.Contains(t, fields, "username")
			assert.Contains(t, fields, "email")
			assert.Contains(t, fields, "password")
		})
	})

	t.Run("login", func(t *testing.T) {
		registerUser(t, srv.URL, "loginuser")

		t.Run("ok", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
				"username": "loginuser",
				"password": "password123",
			})

			require.Equalf(t, http.StatusOK, resp.StatusCode, "Resp: %v", body)
			assert.NotEmpty(t, body["accessToken"])
			assert.Equal(t, "loginuser", body["username"])
		})

		t.Run("wrong password", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
				"username": "loginuser",
				"password": "wrongpassword",
			})

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Invalid username or password", body["message"], "message must not leak which part was wrong")
		})

		t.Run("unknown user", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
				"username": "ghost",
				"password": "password123",
			})

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Invalid username or password", body["message"])
		})
	})

	t.Run("validate", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "validateme")

		t.Run("valid token", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/validate", "", map[string]any{
				"token": access,
			})

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, true, body["valid"])
			assert.Equal(t, "validateme", body["username"])
			assert.Equal(t, "USER", body["role"])
		})

		t.Run("garbage token", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/validate", "", map[string]any{
				"token": "garbage",
			})

			require.Equal(t, http.StatusOK, resp.StatusCode, "invalid token is a negative answer, not an error")
			assert.Equal(t, false, body["valid"])
			assert.Equal(t, "Invalid token", body["message"])
			assert.NotContains(t, body, "username")
		})
	})

	t.Run("refresh", func(t *testing.T) {
		t.Run("rotates", func(t *testing.T) {
			_, refresh := registerUser(t, srv.URL, "refresher")

			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", map[string]any{
				"refreshToken": refresh,
			})

			require.Equalf(t, http.StatusOK, resp.StatusCode, "Resp: %v", body)
			assert.NotEmpty(t, body["accessToken"])
			assert.NotEqual(t, refresh, body["refreshToken"], "refresh token must rotate")

			// The old one is dead now
			resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", map[string]any{
				"refreshToken": refresh,
			})
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Invalid refresh token", body["message"])
		})

		t.Run("unknown token", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", map[string]any{
				"refreshToken": "deadbeef",
			})

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Invalid refresh token", body["message"], "unknown and revoked tokens look the same")
		})
	})

	t.Run("revoke", func(t *testing.T) {
		_, refresh := registerUser(t, srv.URL, "revoker")

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/revoke", "", map[string]any{
			"refreshToken": refresh,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", map[string]any{
			"refreshToken": refresh,
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		t.Run("unknown token succeeds", func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/revoke", "", map[string]any{
				"refreshToken": "deadbeef",
			})
			require.Equal(t, http.StatusOK, resp.StatusCode, "revocation is idempotent")
		})
	})

	t.Run("logout", func(t *testing.T) {
		access, refresh := registerUser(t, srv.URL, "leaver")

		t.Run("without token", func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", "", nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("ok", func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", access, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			// Access token is blacklisted now
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/validate", "", map[string]any{
				"token": access,
			})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, false, body["valid"])

			// And the refresh token went with it
			resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", map[string]any{
				"refreshToken": refresh,
			})
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("protected routes", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "insider")

		t.Run("me with token", func(t *testing.T) {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/users/me", access, nil)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "Resp: %v", body)
			assert.Equal(t, "insider", body["username"])
			assert.Equal(t, "insider@example.com", body["email"])
		})

		t.Run("me without token", func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/users/me", "", nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})

		t.Run("admin route forbidden for user", func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/users", access, nil)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	})

	t.Run("admin routes", func(t *testing.T) {
		// Admins are provisioned out of band, never via the register endpoint
		hash, err := auth.BcryptHasher{}.Hash("password123")
		require.NoError(t, err)
		_, err = storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Username:     "rootadmin",
			Email:        "rootadmin@example.com",
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		})
		require.NoError(t, err)

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
			"username": "rootadmin",
			"password": "password123",
		})
		require.Equalf(t, http.StatusOK, resp.StatusCode, "Resp: %v", body)
		assert.Equal(t, "ADMIN", body["role"])
		adminAccess := body["accessToken"].(string)

		respList, _ := doJSON(t, http.MethodGet, srv.URL+"/api/users", adminAccess, nil)
		require.Equal(t, http.StatusOK, respList.StatusCode)
	})
}
