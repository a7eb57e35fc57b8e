package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, "US", cfg.DefaultRegion)
	assert.Equal(t, 5, cfg.SyncRatePerMinute)
	assert.Equal(t, 30, cfg.SearchRatePerMinute)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SYNC_RATE_PER_MINUTE", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 10, cfg.SyncRatePerMinute)
}

func TestProductionRequiresGoogleClientID(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")

	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: "*"}
	assert.Equal(t, []string{"*"}, cfg.Origins())

	cfg = &Config{AllowedOrigins: "https://a.example.com, https://b.example.com"}
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Origins())
}
