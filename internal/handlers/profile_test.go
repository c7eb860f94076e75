package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superapp/nutrilife/internal/repository/postgres"
	"github.com/superapp/nutrilife/internal/testutil"
)

func Test_ProfileEndpoints(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	srv := startTestServer(t, postgres.NewStorage(pg.Pool))

	profileBody := map[string]any{
		"firstName":      "Jane",
		"lastName":       "Doe",
		"birthDate":      "1990-06-15",
		"gender":         "FEMALE",
		"heightCm":       170,
		"weightKg":       65,
		"activityLevel":  "MODERATELY_ACTIVE",
		"goal":           "WEIGHT_MAINTENANCE",
		"targetWeightKg": 63,
	}

	t.Run("requires auth", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/profile", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create and get", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "profileowner")

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, profileBody)

		require.Equalf(t, http.StatusCreated, resp.StatusCode, "Resp: %v", body)
		assert.Equal(t, "Jane", body["firstName"])
		assert.Equal(t, "Normal", body["bmiCategory"], "BMI 22.5 is in the normal range")
		assert.InDelta(t, 22.5, body["bmi"], 0.1)
		assert.Greater(t, body["bmr"], float64(1000), "BMR should be derived")
		assert.Greater(t, body["tdee"], body["bmr"], "TDEE scales BMR up by activity")
		assert.Greater(t, body["age"], float64(30))

		resp, got := doJSON(t, http.MethodGet, srv.URL+"/api/profile", access, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, body["bmi"], got["bmi"])
		assert.Equal(t, "1990-06-15", got["birthDate"])
	})

	t.Run("duplicate profile", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "greedy")

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, profileBody)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, profileBody)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("get before create", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "nobody")

		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/profile", access, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("update recomputes metrics", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "updater")

		resp, created := doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, profileBody)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		changed := map[string]any{}
		for k, v := range profileBody {
			changed[k] = v
		}
		changed["weightKg"] = 80

		resp, updated := doJSON(t, http.MethodPut, srv.URL+"/api/profile", access, changed)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Greater(t, updated["bmi"], created["bmi"], "more weight, higher BMI")
	})

	t.Run("bad enum rejected", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "sloppy")

		bad := map[string]any{}
		for k, v := range profileBody {
			bad[k] = v
		}
		bad["gender"] = "YES"

		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, bad)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "validation_failed", body["error"])
	})

	t.Run("bad birth date rejected", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "timeless")

		bad := map[string]any{}
		for k, v := range profileBody {
			bad[k] = v
		}
		bad["birthDate"] = "15.06.1990"

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, bad)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "remover")

		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/profile", access, profileBody)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/profile", access, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/profile", access, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("listing is admin only", func(t *testing.T) {
		access, _ := registerUser(t, srv.URL, "mortal")

		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/profiles", access, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
