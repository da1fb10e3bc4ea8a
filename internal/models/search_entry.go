package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SearchEntry caches one search result set, keyed by a hash over the
// canonicalized query and filter pairs. Entries past their TTL are logically
// dead on read and lazily evicted.
type SearchEntry struct {
	Key        string         `gorm:"primaryKey;size:64" json:"key"`
	Query      string         `gorm:"type:text" json:"query"`
	Filters    datatypes.JSON `json:"filters"`
	Results    datatypes.JSON `json:"results"`
	TotalHits  int            `json:"total_hits"`
	TTLSeconds int64          `json:"ttl_seconds"`
	CachedAt   time.Time      `gorm:"index" json:"cached_at"`
}

// Expired reports whether the entry is logically dead at the given instant.
// An entry exactly at its TTL counts as expired.
func (s SearchEntry) Expired(now time.Time) bool {
	ttl := time.Duration(s.TTLSeconds) * time.Second
	return now.Sub(s.CachedAt) >= ttl
}

// ResultList decodes the cached article payloads.
func (s SearchEntry) ResultList() []Article {
	if len(s.Results) == 0 {
		return nil
	}
	var out []Article
	if err := json.Unmarshal(s.Results, &out); err != nil {
		return nil
	}
	return out
}

// SetResultList encodes the article payloads for storage.
func (s *SearchEntry) SetResultList(articles []Article) error {
	data, err := json.Marshal(articles)
	if err != nil {
		return err
	}
	s.Results = datatypes.JSON(data)
	return nil
}
