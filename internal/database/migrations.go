package database

import (
	"gorm.io/gorm"

	"github.com/avandyck/newsdock/internal/models"
)

// AutoMigrate creates or updates the database schema for all collections:
// records, pages, search cache, outbox, and settings.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Article{},
		&models.PageEntry{},
		&models.SearchEntry{},
		&models.OutboxAction{},
		&models.Setting{},
	)
}
