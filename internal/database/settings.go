package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/avandyck/newsdock/internal/models"
)

// Settings keys used by the application.
const (
	AutoDownloadRanSetting = "downloads.auto_ran"
)

// GetSetting retrieves a setting by key. Returns an empty string when not found.
func GetSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("settings: db is nil")
	}

	var setting models.Setting
	err := db.WithContext(ctx).Take(&setting, "key = ?", key).Error
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return "", nil
	}
	return "", fmt.Errorf("settings: get %q: %w", key, err)
}

// UpsertSetting stores or updates a setting value.
func UpsertSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return fmt.Errorf("settings: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("settings: key is required")
	}

	record := models.Setting{
		Key:   key,
		Value: value,
	}

	if err := db.WithContext(ctx).
		Where("key = ?", key).
		Assign(map[string]any{"value": value}).
		FirstOrCreate(&record).Error; err != nil {
		return fmt.Errorf("settings: upsert %q: %w", key, err)
	}

	return nil
}

// DeleteSetting removes a setting row if present.
func DeleteSetting(ctx context.Context, db *gorm.DB, key string) error {
	if db == nil {
		return fmt.Errorf("settings: db is nil")
	}
	if err := db.WithContext(ctx).Where("key = ?", key).Delete(&models.Setting{}).Error; err != nil {
		return fmt.Errorf("settings: delete %q: %w", key, err)
	}
	return nil
}
