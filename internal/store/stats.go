package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/avandyck/newsdock/internal/models"
)

// StorageStats is derived on demand, never stored.
type StorageStats struct {
	TotalArticles int64   `json:"total_articles"`
	SavedOffline  int64   `json:"saved_offline"`
	Read          int64   `json:"read"`
	Bookmarked    int64   `json:"bookmarked"`
	CachedPages   int64   `json:"cached_pages"`
	UsagePercent  float64 `json:"usage_percent"`
}

// Stats recomputes the aggregate counts. A failing sub-count degrades to 0;
// Stats itself never fails.
func (s *ArticleStore) Stats(ctx context.Context) StorageStats {
	ctx = ensureContext(ctx)

	stats := StorageStats{
		TotalArticles: s.countArticles(ctx, nil),
		SavedOffline:  s.countArticles(ctx, func(a models.Article) bool { return a.SavedOffline }),
		Read:          s.countArticles(ctx, func(a models.Article) bool { return a.Read }),
		Bookmarked:    s.countArticles(ctx, func(a models.Article) bool { return a.Bookmarked }),
	}

	var pages int64
	if err := s.db.WithContext(ctx).Model(&models.PageEntry{}).Count(&pages).Error; err == nil {
		stats.CachedPages = pages
	}

	if s.usage != nil {
		stats.UsagePercent = s.usage() * 100
	}

	return stats
}

// countArticles shares the predicate-scan rule with QueryByPredicate: the
// flag counts come from a full retrieval, not indexed boolean queries.
func (s *ArticleStore) countArticles(ctx context.Context, pred func(models.Article) bool) int64 {
	var all []models.Article
	if err := s.db.WithContext(ctx).Find(&all).Error; err != nil {
		s.log.Warn("count scan failed", zap.Error(err))
		return 0
	}
	if pred == nil {
		return int64(len(all))
	}
	var n int64
	for _, article := range all {
		if pred(article) {
			n++
		}
	}
	return n
}

// PurgeOlderThan deletes records published before the cutoff. Offline-saved
// records and queued actions are never touched by age-based cleanup. Page
// entries that reference a purged record are evicted with it so a cached page
// never replays a shortened sequence.
func (s *ArticleStore) PurgeOlderThan(ctx context.Context, days int) int64 {
	ctx = ensureContext(ctx)
	if days <= 0 {
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -days)

	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("saved_offline = ? AND published_at < ?", false, cutoff).
		Pluck("id", &ids).Error; err != nil {
		s.log.Warn("purge scan failed", zap.Int("days", days), zap.Error(err))
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Article{})
	if result.Error != nil {
		s.log.Warn("purge failed", zap.Int("days", days), zap.Error(result.Error))
		return 0
	}

	s.dropPagesReferencing(ctx, ids)

	if result.RowsAffected > 0 {
		s.log.Info("purged aged records",
			zap.Int64("removed", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return result.RowsAffected
}
