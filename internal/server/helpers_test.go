package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oneiro/internal/ai"
	"oneiro/internal/config"
	"oneiro/internal/models"
	"oneiro/internal/store"
)

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func newTestServer(t *testing.T, client ai.Client) (*fiber.App, *Server) {
	t.Helper()
	return newTestServerWithRedis(t, client, nil)
}

func newTestServerWithRedis(t *testing.T, client ai.Client, rdb *redis.Client) (*fiber.App, *Server) {
	t.Helper()
	cfg := &config.Config{
		Port:           "0",
		JWTSecret:      "test-secret-for-handlers",
		SQLitePath:     ":memory:",
		ImageUploadDir: t.TempDir(),
		FeatureFlags:   "beta_insights=on,dream_sharing_v2=off",
	}
	db, err := store.Open(cfg, slog.Default())
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background(), db, slog.Default()))
	t.Cleanup(func() { db.Close() })

	s := NewServerWithDeps(cfg, db, rdb, client)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app, s
}

func jsonRequest(t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	}
	return resp.StatusCode, body
}

// registerUser registers a user through the API and returns its token
// and id.
func registerUser(t *testing.T, app *fiber.App, username, password string) (token string, id int64) {
	t.Helper()
	status, body := doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, ""))
	require.Equal(t, http.StatusCreated, status, "register failed: %v", body)

	token = body["token"].(string)
	user := body["user"].(map[string]any)
	return token, int64(user["id"].(float64))
}

// promoteAdmin flips the admin flag directly in the store.
func promoteAdmin(t *testing.T, s *Server, userID int64) {
	t.Helper()
	_, err := s.db.Execute(context.Background(),
		"UPDATE users SET is_admin = ? WHERE id = ?", true, userID)
	require.NoError(t, err)
}

// createDream makes a dream through the API and returns its id.
func createDream(t *testing.T, app *fiber.App, token, date, title string) int64 {
	t.Helper()
	status, body := doJSON(t, app, jsonRequest(t, http.MethodPost, "/api/dreams", map[string]any{
		"date":     date,
		"title":    title,
		"content":  "dream content for " + title,
		"emotions": []string{"joy", "fear"},
	}, token))
	require.Equal(t, http.StatusCreated, status, "create dream failed: %v", body)
	return int64(body["dreamId"].(float64))
}

func shareDream(t *testing.T, app *fiber.App, token string, dreamID int64) {
	t.Helper()
	status, body := doJSON(t, app, jsonRequest(t, http.MethodPut,
		fmt.Sprintf("/api/community/%d/visibility", dreamID),
		map[string]any{"isPublic": true}, token))
	require.Equal(t, http.StatusOK, status, "share dream failed: %v", body)
}
