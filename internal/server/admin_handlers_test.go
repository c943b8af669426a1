package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStatsRequireAdmin(t *testing.T) {
	app, _ := newTestServer(t, nil)
	token, _ := registerUser(t, app, "alice", "pw123")

	status, _ := doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/admin/stats", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/admin/stats", nil, token))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])
}

func TestAdminStatsOverview(t *testing.T) {
	app, s := newTestServer(t, nil)
	adminToken, adminID := registerUser(t, app, "root", "pw123")
	promoteAdmin(t, s, adminID)
	token, _ := registerUser(t, app, "alice", "pw456")
	createDream(t, app, token, "2026-03-01", "counted")

	status, body := doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/admin/stats", nil, adminToken))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["totalUsers"])
	assert.Equal(t, float64(1), body["totalDreams"])
	assert.Equal(t, float64(0), body["totalAnalyses"])
}

func TestAdminDetailedStats(t *testing.T) {
	app, s := newTestServer(t, nil)
	adminToken, adminID := registerUser(t, app, "root", "pw123")
	promoteAdmin(t, s, adminID)

	status, body := doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username":   "alice",
		"email":      "alice@example.com",
		"password":   "pw456",
		"birth_date": "1994-05-01",
		"gender":     "female",
	}, ""))
	require.Equal(t, http.StatusCreated, status, "register failed: %v", body)

	status, body = doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/admin/stats/detailed", nil, adminToken))
	require.Equal(t, http.StatusOK, status)

	genderStats := body["genderStats"].(map[string]any)
	assert.Equal(t, float64(1), genderStats["여성"])
	assert.Equal(t, float64(1), genderStats["미상"], "the admin registered without demographics")

	ageStats := body["ageStats"].(map[string]any)
	assert.Equal(t, float64(1), ageStats["미상"])
}

func TestAdminFeatureFlags(t *testing.T) {
	app, s := newTestServer(t, nil)
	adminToken, adminID := registerUser(t, app, "root", "pw123")
	promoteAdmin(t, s, adminID)
	userToken, _ := registerUser(t, app, "alice", "pw456")

	status, body := doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/admin/flags", nil, userToken))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, body = doJSON(t, app, jsonRequest(t, http.MethodGet, "/api/admin/flags", nil, adminToken))
	require.Equal(t, http.StatusOK, status)

	flags := body["flags"].(map[string]any)
	assert.Equal(t, "on", flags["beta_insights"])
	assert.Equal(t, "off", flags["dream_sharing_v2"])

	evaluated := body["evaluated"].(map[string]any)
	assert.Equal(t, true, evaluated["beta_insights"])
	assert.Equal(t, false, evaluated["dream_sharing_v2"])
}
