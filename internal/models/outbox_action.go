package models

import (
	"time"

	"gorm.io/datatypes"
)

// Outbox action statuses. Transitions are one-directional:
// pending -> completed or pending -> failed. Failed actions are never
// resurrected automatically.
const (
	ActionStatusPending   = "pending"
	ActionStatusCompleted = "completed"
	ActionStatusFailed    = "failed"
)

// Outbox action types understood by the sync processor.
const (
	ActionSaveArticle   = "article.save"
	ActionMarkRead      = "article.read"
	ActionBookmark      = "article.bookmark"
	ActionSettingChange = "setting.change"
)

// OutboxAction is a locally-originated mutation awaiting remote confirmation.
type OutboxAction struct {
	BaseModel

	Type       string         `gorm:"type:varchar(64);not null" json:"type"`
	Payload    datatypes.JSON `json:"payload"`
	Status     string         `gorm:"type:varchar(16);default:'pending';index" json:"status"`
	EnqueuedAt time.Time      `gorm:"index" json:"enqueued_at"`
}
