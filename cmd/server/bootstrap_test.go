package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avandyck/newsdock/internal/app"
	"github.com/avandyck/newsdock/pkg/logger"
)

func testConfig() *app.Config {
	return &app.Config{
		Server:   app.ServerConfig{Port: 0, LogLevel: "error"},
		Database: app.DatabaseConfig{Driver: "sqlite"},
		Network: app.NetworkConfig{
			BaseURL:  "https://newsapi.org/v2",
			APIKey:   "test-key",
			Language: "en",
			Timeout:  time.Second,
		},
		Cache:   app.CacheConfig{SearchTTL: time.Minute, RetentionDays: 7},
		Storage: app.StorageConfig{QuotaMB: 64},
		Downloads: app.DownloadsConfig{
			AutoPages: 1, PageSize: 10, StorageThreshold: 0.8,
		},
		Sync: app.SyncConfig{Timeout: time.Second},
	}
}

func TestBootstrapRuntime(t *testing.T) {
	require.NoError(t, app.ConfigureLogging("error"))
	log := logger.WithModule("test")

	stack, err := bootstrapRuntime(testConfig(), log)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, stack.Shutdown(log))
	}()

	require.NotNil(t, stack.Articles)
	require.NotNil(t, stack.Pipeline)
	require.NotNil(t, stack.Processor)
	require.NotNil(t, stack.Downloads)
	require.NotNil(t, stack.Router)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoadApplicationConfigRejectsMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/does/not/exist")
	require.Error(t, err)
}
