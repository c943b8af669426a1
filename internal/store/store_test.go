package store

import (
	"context"
	"log/slog"
	"testing"

	"oneiro/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) Store {
	t.Helper()
	cfg := &config.Config{SQLitePath: ":memory:"}
	s, err := Open(cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSelectsSQLiteWithoutDatabaseURL(t *testing.T) {
	s := newMemoryStore(t)
	assert.Equal(t, KindSQLite, s.Kind())
	assert.Equal(t, sqliteDialect, s.Dialect())
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	require.NoError(t, EnsureSchema(ctx, s, slog.Default()))

	ins, err := s.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"luna", "luna@example.com", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ins.RowCount)
	require.Positive(t, ins.InsertID)

	row, err := s.FetchOne(ctx, "SELECT * FROM users WHERE id = ?", ins.InsertID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "luna", row.String("username"))
	assert.False(t, row.Bool("is_admin"))
	assert.False(t, row.Time("created_at").IsZero())

	upd, err := s.Execute(ctx, "UPDATE users SET nickname = ? WHERE id = ?",
		"Moon", ins.InsertID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.RowCount)

	// Updates that match nothing report zero affected rows.
	miss, err := s.Execute(ctx, "UPDATE users SET nickname = ? WHERE id = ?",
		"x", int64(9999))
	require.NoError(t, err)
	assert.Zero(t, miss.RowCount)

	none, err := s.FetchOne(ctx, "SELECT * FROM users WHERE id = ?", int64(9999))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteInsertIDsIncrement(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	require.NoError(t, EnsureSchema(ctx, s, slog.Default()))

	first, err := s.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"a", "a@example.com", "x")
	require.NoError(t, err)
	second, err := s.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"b", "b@example.com", "x")
	require.NoError(t, err)
	assert.Greater(t, second.InsertID, first.InsertID)
}

func TestSQLiteEnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	require.NoError(t, EnsureSchema(ctx, s, slog.Default()))

	_, err := s.Execute(ctx,
		"INSERT INTO dreams (user_id, date, title, content) VALUES (?, ?, ?, ?)",
		int64(12345), "2026-01-01", "orphan", "no such user")
	require.Error(t, err)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)

	require.NoError(t, EnsureSchema(ctx, s, slog.Default()))

	_, err := s.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"keep", "keep@example.com", "x")
	require.NoError(t, err)

	// A second run must not disturb existing data.
	require.NoError(t, EnsureSchema(ctx, s, slog.Default()))

	row, err := s.FetchOne(ctx, "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.Int64("n"))
}

func TestUniqueConstraintSurfaces(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(t)
	require.NoError(t, EnsureSchema(ctx, s, slog.Default()))

	_, err := s.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"dup", "dup@example.com", "x")
	require.NoError(t, err)

	_, err = s.Execute(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		"dup", "other@example.com", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE")
}
