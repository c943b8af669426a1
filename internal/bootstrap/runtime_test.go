package bootstrap

import (
	"context"
	"log/slog"
	"testing"

	"oneiro/internal/config"
	"oneiro/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newBootstrapStore(t *testing.T) store.Store {
	t.Helper()
	cfg := &config.Config{SQLitePath: ":memory:"}
	db, err := store.Open(cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.EnsureSchema(context.Background(), db, slog.Default()))
	return db
}

func TestEnsureDevRootAdminCreatesAccount(t *testing.T) {
	ctx := context.Background()
	db := newBootstrapStore(t)
	cfg := &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootPassword:  "root-secret",
	}

	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, db))

	row, err := db.FetchOne(ctx, "SELECT * FROM users WHERE id = ?", int64(1))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "oneiro_root", row.String("username"))
	assert.Equal(t, "root@oneiro.local", row.String("email"))
	assert.True(t, row.Bool("is_admin"))
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(row.String("password_hash")), []byte("root-secret")))

	// Idempotent by default: rerunning leaves existing credentials alone.
	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, db))
	again, err := db.FetchOne(ctx, "SELECT password_hash FROM users WHERE id = ?", int64(1))
	require.NoError(t, err)
	assert.Equal(t, row.String("password_hash"), again.String("password_hash"))
}

func TestEnsureDevRootAdminPromotesExistingFirstUser(t *testing.T) {
	ctx := context.Background()
	db := newBootstrapStore(t)

	_, err := db.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"first", "first@example.com", "x")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootPassword:  "root-secret",
	}
	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, db))

	row, err := db.FetchOne(ctx, "SELECT username, is_admin FROM users WHERE id = ?", int64(1))
	require.NoError(t, err)
	assert.Equal(t, "first", row.String("username"), "credentials stay by default")
	assert.True(t, row.Bool("is_admin"))
}

func TestEnsureDevRootAdminForceCredentials(t *testing.T) {
	ctx := context.Background()
	db := newBootstrapStore(t)

	_, err := db.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"first", "first@example.com", "x")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                     "development",
		DevBootstrapRoot:        true,
		DevRootUsername:         "custom_root",
		DevRootEmail:            "Root@Example.com",
		DevRootPassword:         "root-secret",
		DevRootForceCredentials: true,
	}
	require.NoError(t, EnsureDevRootAdmin(ctx, cfg, db))

	row, err := db.FetchOne(ctx, "SELECT username, email, is_admin FROM users WHERE id = ?", int64(1))
	require.NoError(t, err)
	assert.Equal(t, "custom_root", row.String("username"))
	assert.Equal(t, "root@example.com", row.String("email"))
	assert.True(t, row.Bool("is_admin"))
}

func TestEnsureDevRootAdminSkips(t *testing.T) {
	ctx := context.Background()
	db := newBootstrapStore(t)

	// Disabled outside development, and when the toggle is off.
	for _, cfg := range []*config.Config{
		{Env: "production", DevBootstrapRoot: true, DevRootPassword: "x"},
		{Env: "development", DevBootstrapRoot: false},
	} {
		require.NoError(t, EnsureDevRootAdmin(ctx, cfg, db))
		row, err := db.FetchOne(ctx, "SELECT id FROM users WHERE id = ?", int64(1))
		require.NoError(t, err)
		assert.Nil(t, row)
	}
}

func TestEnsureDevRootAdminRequiresPassword(t *testing.T) {
	ctx := context.Background()
	db := newBootstrapStore(t)
	cfg := &config.Config{Env: "development", DevBootstrapRoot: true}

	err := EnsureDevRootAdmin(ctx, cfg, db)
	assert.ErrorContains(t, err, "DEV_ROOT_PASSWORD")
}
