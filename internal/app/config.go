package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the NewsDock backend.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Network   NetworkConfig   `mapstructure:"network"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Sync      SyncConfig      `mapstructure:"sync"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes the embedded store location.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// NetworkConfig configures the upstream news API.
type NetworkConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig tunes the local caches and retention.
type CacheConfig struct {
	SearchTTL     time.Duration `mapstructure:"search_ttl"`
	RetentionDays int           `mapstructure:"retention_days"`
}

// StorageConfig bounds how much disk the store may use.
type StorageConfig struct {
	QuotaMB int64 `mapstructure:"quota_mb"`
}

// DownloadsConfig tunes automatic and manual prefetching.
type DownloadsConfig struct {
	AutoEnabled      bool    `mapstructure:"auto_enabled"`
	AutoPages        int     `mapstructure:"auto_pages"`
	PageSize         int     `mapstructure:"page_size"`
	Category         string  `mapstructure:"category"`
	StorageThreshold float64 `mapstructure:"storage_threshold"`
}

// SyncConfig configures outbox draining against the remote sync API.
type SyncConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("NEWSDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/newsdock.sqlite")

	v.SetDefault("network.base_url", "https://newsapi.org/v2")
	v.SetDefault("network.language", "en")
	v.SetDefault("network.timeout", "15s")

	v.SetDefault("cache.search_ttl", "30m")
	v.SetDefault("cache.retention_days", 30)

	v.SetDefault("storage.quota_mb", 512)

	v.SetDefault("downloads.auto_enabled", true)
	v.SetDefault("downloads.auto_pages", 2)
	v.SetDefault("downloads.page_size", 20)
	v.SetDefault("downloads.storage_threshold", 0.8)

	v.SetDefault("sync.timeout", "15s")
	v.SetDefault("sync.interval", "5m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
