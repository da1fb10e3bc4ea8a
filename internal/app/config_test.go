package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "/tmp/newsdock-test.sqlite", cfg.Database.Path)

	require.Equal(t, "https://news.example.com/v2", cfg.Network.BaseURL)
	require.Equal(t, "file-key", cfg.Network.APIKey)
	require.Equal(t, "de", cfg.Network.Language)
	require.Equal(t, 30*time.Second, cfg.Network.Timeout)

	require.Equal(t, 10*time.Minute, cfg.Cache.SearchTTL)
	require.Equal(t, 14, cfg.Cache.RetentionDays)

	require.Equal(t, int64(128), cfg.Storage.QuotaMB)

	require.False(t, cfg.Downloads.AutoEnabled)
	require.Equal(t, 4, cfg.Downloads.AutoPages)
	require.Equal(t, 25, cfg.Downloads.PageSize)
	require.Equal(t, "technology", cfg.Downloads.Category)
	require.InDelta(t, 0.7, cfg.Downloads.StorageThreshold, 1e-9)

	require.Equal(t, "https://sync.example.com", cfg.Sync.Endpoint)
	require.Equal(t, "sync-key", cfg.Sync.APIKey)
	require.Equal(t, 20*time.Second, cfg.Sync.Timeout)
	require.Equal(t, 2*time.Minute, cfg.Sync.Interval)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "https://newsapi.org/v2", cfg.Network.BaseURL)
	require.Equal(t, "en", cfg.Network.Language)
	require.Equal(t, 15*time.Second, cfg.Network.Timeout)
	require.Equal(t, 30*time.Minute, cfg.Cache.SearchTTL)
	require.Equal(t, 30, cfg.Cache.RetentionDays)
	require.Equal(t, int64(512), cfg.Storage.QuotaMB)
	require.True(t, cfg.Downloads.AutoEnabled)
	require.Equal(t, 2, cfg.Downloads.AutoPages)
	require.Equal(t, 20, cfg.Downloads.PageSize)
	require.InDelta(t, 0.8, cfg.Downloads.StorageThreshold, 1e-9)
	require.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NEWSDOCK_SERVER_PORT", "7001")
	t.Setenv("NEWSDOCK_NETWORK_API_KEY", "env-key")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7001, cfg.Server.Port)
	require.Equal(t, "env-key", cfg.Network.APIKey)
}
