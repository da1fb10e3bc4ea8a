package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avandyck/newsdock/internal/models"
)

// SearchKey hashes the canonicalized (query, sorted filter pairs) tuple.
// A full digest rather than a truncated encoding: distinct long queries must
// not collide.
func SearchKey(query string, filters models.SearchFilters) string {
	parts := append([]string{"q=" + strings.ToLower(strings.TrimSpace(query))}, filters.Pairs()...)
	sum := sha256.Sum256([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(sum[:])
}

// SearchResults looks up a cached result set. Entries at or past their TTL
// are treated as misses and deleted on the spot.
func (s *ArticleStore) SearchResults(ctx context.Context, query string, filters models.SearchFilters) ([]models.Article, int, bool) {
	ctx = ensureContext(ctx)
	key := SearchKey(query, filters)

	var entry models.SearchEntry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("load search cache failed", zap.Error(err))
		}
		return nil, 0, false
	}

	if entry.Expired(s.now()) {
		if err := s.db.WithContext(ctx).Delete(&models.SearchEntry{}, "key = ?", key).Error; err != nil {
			s.log.Warn("evict expired search entry failed", zap.Error(err))
		}
		return nil, 0, false
	}

	return entry.ResultList(), entry.TotalHits, true
}

// PutSearchResults caches a result set under the canonical key with the
// configured TTL. Last write wins.
func (s *ArticleStore) PutSearchResults(ctx context.Context, query string, filters models.SearchFilters, articles []models.Article, totalHits int) bool {
	ctx = ensureContext(ctx)

	entry := models.SearchEntry{
		Key:        SearchKey(query, filters),
		Query:      strings.TrimSpace(query),
		TotalHits:  totalHits,
		TTLSeconds: int64(s.searchTTL.Seconds()),
		CachedAt:   s.now(),
	}
	if err := entry.SetResultList(articles); err != nil {
		s.log.Warn("encode search results failed", zap.Error(err))
		return false
	}
	if data, err := json.Marshal(filters); err == nil {
		entry.Filters = data
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"query", "filters", "results", "total_hits", "ttl_seconds", "cached_at"}),
		}).Create(&entry).Error
	if err != nil {
		s.log.Warn("put search cache failed", zap.Error(err))
		return false
	}
	return true
}

// EvictExpiredSearches removes every logically dead search entry. TTLs vary
// per entry, so this is a scan-and-filter pass like the other predicate reads.
func (s *ArticleStore) EvictExpiredSearches(ctx context.Context) int64 {
	ctx = ensureContext(ctx)

	var entries []models.SearchEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		s.log.Warn("scan search cache failed", zap.Error(err))
		return 0
	}

	now := s.now()
	var keys []string
	for _, entry := range entries {
		if entry.Expired(now) {
			keys = append(keys, entry.Key)
		}
	}
	if len(keys) == 0 {
		return 0
	}

	result := s.db.WithContext(ctx).Delete(&models.SearchEntry{}, "key IN ?", keys)
	if result.Error != nil {
		s.log.Warn("evict expired searches failed", zap.Error(result.Error))
		return 0
	}
	return result.RowsAffected
}
