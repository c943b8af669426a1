package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oneiro/internal/config"
	"oneiro/internal/models"
	"oneiro/internal/repository"
	"oneiro/internal/store"
)

func newStatsFixture(t *testing.T) (*StatsService, store.Store) {
	t.Helper()
	cfg := &config.Config{SQLitePath: ":memory:"}
	db, err := store.Open(cfg, slog.Default())
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background(), db, slog.Default()))
	t.Cleanup(func() { db.Close() })

	svc := NewStatsService(
		repository.NewUserRepository(db),
		repository.NewDreamRepository(db),
		repository.NewAnalysisRepository(db),
	)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	return svc, db
}

func addUser(t *testing.T, db store.Store, username, birthDate, gender string) {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		BirthDate:    birthDate,
		Gender:       gender,
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), u))
}

func TestStatsOverview(t *testing.T) {
	svc, db := newStatsFixture(t)
	ctx := context.Background()

	addUser(t, db, "alice", "1994-05-01", "female")
	d := &models.Dream{UserID: 1, Date: "2026-01-01", Title: "t", Content: "c"}
	require.NoError(t, repository.NewDreamRepository(db).Create(ctx, d))
	require.NoError(t, repository.NewAnalysisRepository(db).Create(ctx,
		&models.Analysis{DreamID: d.ID, Interpretation: "i"}))

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.TotalUsers)
	assert.Equal(t, int64(1), overview.TotalDreams)
	assert.Equal(t, int64(1), overview.TotalAnalyses)
}

func TestStatsDetailedBuckets(t *testing.T) {
	svc, db := newStatsFixture(t)

	addUser(t, db, "a", "1994-05-01", "남성")
	addUser(t, db, "b", "1999-01-01", "male")
	addUser(t, db, "c", "1980-01-01", "F")
	addUser(t, db, "d", "2010-01-01", "other")
	addUser(t, db, "e", "", "")
	addUser(t, db, "f", "not-a-date", "alien")

	stats, err := svc.Detailed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.GenderStats["남성"], "korean and english spellings share a bucket")
	assert.Equal(t, 1, stats.GenderStats["여성"])
	assert.Equal(t, 1, stats.GenderStats["기타"])
	assert.Equal(t, 2, stats.GenderStats["미상"])

	assert.Equal(t, 1, stats.AgeStats["10대 이하"])
	assert.Equal(t, 1, stats.AgeStats["20대"])
	assert.Equal(t, 1, stats.AgeStats["30대"])
	assert.Equal(t, 1, stats.AgeStats["40대"])
	assert.Equal(t, 2, stats.AgeStats["미상"])
}

func TestAgeBucketBoundaries(t *testing.T) {
	cases := []struct {
		birthDate string
		want      string
	}{
		{"2007-01-01", "10대 이하"}, // exactly 19
		{"2006-12-31", "20대"},    // exactly 20
		{"1976-06-15", "50대 이상"},
		{"", "미상"},
		{"19x4-01-01", "미상"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ageBucket(tc.birthDate, 2026), "birth date %q", tc.birthDate)
	}
}
