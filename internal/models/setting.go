package models

import "time"

// Setting is a generic key/value row used for small flags, such as whether
// the automatic download already ran this session.
type Setting struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
