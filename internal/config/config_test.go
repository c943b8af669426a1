package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return LoadConfig()
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "dreams.db", cfg.SQLitePath)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "gpt-4", cfg.AIModel)
	assert.Equal(t, "https://api.openai.com", cfg.AIBaseURL)
	assert.Equal(t, 5, cfg.ImageMaxUploadSizeMB)
	assert.False(t, cfg.TracingEnabled)
	assert.Empty(t, cfg.FeatureFlags)
	assert.False(t, cfg.DevBootstrapRoot)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SQLITE_PATH", "/tmp/other.db")
	t.Setenv("FEATURE_FLAGS", "beta=on")

	cfg, err := loadClean(t)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/tmp/other.db", cfg.SQLitePath)
	assert.Equal(t, "beta=on", cfg.FeatureFlags)
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := &Config{JWTSecret: "secret", SQLitePath: "x.db"}
	assert.ErrorContains(t, cfg.Validate(), "PORT is required")

	cfg = &Config{Port: "3000", SQLitePath: "x.db"}
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET is required")

	cfg = &Config{Port: "3000", JWTSecret: "secret"}
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL or SQLITE_PATH")
}

func TestValidateProductionSecretRules(t *testing.T) {
	cfg := &Config{
		Port:       "3000",
		JWTSecret:  "your-secret-key-change-in-production",
		SQLitePath: "x.db",
		Env:        "production",
	}
	assert.ErrorContains(t, cfg.Validate(), "changed from the default")

	cfg.JWTSecret = "short"
	assert.ErrorContains(t, cfg.Validate(), "at least 32 characters")

	cfg.JWTSecret = strings.Repeat("s", 32)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsProductionDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := loadClean(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
