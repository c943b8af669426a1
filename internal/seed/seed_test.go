package seed

import (
	"context"
	"log/slog"
	"testing"

	"oneiro/internal/config"
	"oneiro/internal/repository"
	"oneiro/internal/store"

	"github.com/stretchr/testify/require"
)

func newSeedStore(t *testing.T) store.Store {
	t.Helper()
	cfg := &config.Config{SQLitePath: ":memory:"}
	db, err := store.Open(cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.EnsureSchema(context.Background(), db, slog.Default()))
	return db
}

func TestSeederRun(t *testing.T) {
	ctx := context.Background()
	db := newSeedStore(t)

	opts := Options{NumUsers: 8, NumDreams: 30, ShareRatio: 1.0, SkipBcrypt: true}
	s := NewSeeder(db, opts)
	require.NoError(t, s.Run(ctx, opts))

	users := repository.NewUserRepository(db)
	dreams := repository.NewDreamRepository(db)
	posts := repository.NewPostRepository(db)

	userCount, err := users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(8), userCount)

	dreamCount, err := dreams.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(30), dreamCount)

	// Every dream was shared, so the feed sees all of them.
	feed, err := dreams.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 30)

	board, err := posts.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, board)

	// The fixed demo account exists with its known username.
	demo, err := users.GetByEmail(ctx, "luna@example.com")
	require.NoError(t, err)
	require.NotNil(t, demo)
	require.Equal(t, "luna", demo.Username)
}

func TestSeederClearAll(t *testing.T) {
	ctx := context.Background()
	db := newSeedStore(t)

	opts := Options{NumUsers: 4, NumDreams: 10, ShareRatio: 0.5, SkipBcrypt: true}
	s := NewSeeder(db, opts)
	require.NoError(t, s.Run(ctx, opts))
	require.NoError(t, s.ClearAll(ctx))

	users := repository.NewUserRepository(db)
	count, err := users.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestFactoryBuildDream(t *testing.T) {
	f := NewFactory(Options{})
	dream := f.BuildDream(7)
	require.Equal(t, int64(7), dream.UserID)
	require.NotEmpty(t, dream.Title)
	require.NotEmpty(t, dream.Content)
	require.NotEmpty(t, dream.Emotions)
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, dream.Date)
}

func TestFactoryBuildAnalysis(t *testing.T) {
	f := NewFactory(Options{})
	analysis := f.BuildAnalysis(3)
	require.Equal(t, int64(3), analysis.DreamID)
	require.NotEmpty(t, analysis.Interpretation)
	require.NotEmpty(t, analysis.Archetypes)
	require.NotEmpty(t, analysis.Symbols)
}

func TestApplyPresetUnknown(t *testing.T) {
	db := newSeedStore(t)
	s := NewSeeder(db, Options{})
	err := s.ApplyPreset(context.Background(), "Nope")
	require.ErrorContains(t, err, "unknown preset")
}
