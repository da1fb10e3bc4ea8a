package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Page cache origin tags.
const (
	PageOriginAuto   = "auto"
	PageOriginManual = "manual"
)

// PageEntry caches the ordered article-id sequence for one (source, page) key.
// Writes are last-write-wins; once written, reads must return the identical
// sequence until the entry is overwritten or cleared.
type PageEntry struct {
	Source       string         `gorm:"primaryKey;size:128" json:"source"`
	PageNum      int            `gorm:"primaryKey" json:"page_num"`
	ArticleIDs   datatypes.JSON `json:"article_ids"`
	Origin       string         `gorm:"type:varchar(16);default:'auto'" json:"origin"`
	SizeEstimate int64          `json:"size_estimate"`
	CachedAt     time.Time      `gorm:"index" json:"cached_at"`
}

// IDList decodes the ordered article-id sequence.
func (p PageEntry) IDList() []string {
	if len(p.ArticleIDs) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.ArticleIDs, &out); err != nil {
		return nil
	}
	return out
}

// SetIDList encodes the ordered article-id sequence.
func (p *PageEntry) SetIDList(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	p.ArticleIDs = datatypes.JSON(data)
	return nil
}
