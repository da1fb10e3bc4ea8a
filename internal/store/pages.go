package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avandyck/newsdock/internal/models"
)

// Page returns the cached records for one (source, page) key in the exact
// sequence recorded at write time. A hit always replays the full recorded
// sequence: an entry whose ids no longer all resolve is evicted and reported
// as a miss rather than served short.
func (s *ArticleStore) Page(ctx context.Context, source string, pageNum int) ([]models.Article, bool) {
	ctx = ensureContext(ctx)

	var entry models.PageEntry
	err := s.db.WithContext(ctx).
		Take(&entry, "source = ? AND page_num = ?", source, pageNum).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("load page failed", zap.String("source", source), zap.Int("page", pageNum), zap.Error(err))
		}
		return nil, false
	}

	ids := entry.IDList()
	articles, resolved := s.articlesInOrder(ctx, ids)
	if !resolved {
		return nil, false
	}
	if len(articles) != len(ids) {
		s.log.Warn("evicting page with unresolvable ids",
			zap.String("source", source), zap.Int("page", pageNum),
			zap.Int("recorded", len(ids)), zap.Int("resolved", len(articles)))
		if err := s.db.WithContext(ctx).
			Where("source = ? AND page_num = ?", source, pageNum).
			Delete(&models.PageEntry{}).Error; err != nil {
			s.log.Warn("evict page failed", zap.String("source", source), zap.Int("page", pageNum), zap.Error(err))
		}
		return nil, false
	}
	return articles, true
}

// PutPage records the ordered article sequence for a (source, page) key.
// Last write wins on the same key; the articles themselves are upserted so
// the sequence stays resolvable.
func (s *ArticleStore) PutPage(ctx context.Context, source string, pageNum int, articles []models.Article, origin string) bool {
	ctx = ensureContext(ctx)

	if origin != models.PageOriginManual {
		origin = models.PageOriginAuto
	}

	if !s.SaveArticles(ctx, articles) {
		return false
	}

	ids := make([]string, 0, len(articles))
	var size int64
	for _, a := range articles {
		if a.ID == "" {
			a.ID = models.ArticleID(a.URL)
		}
		ids = append(ids, a.ID)
		size += estimateArticleSize(a)
	}

	entry := models.PageEntry{
		Source:       source,
		PageNum:      pageNum,
		Origin:       origin,
		SizeEstimate: size,
		CachedAt:     s.now(),
	}
	if err := entry.SetIDList(ids); err != nil {
		s.log.Warn("encode page ids failed", zap.Error(err))
		return false
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "page_num"}},
			DoUpdates: clause.AssignmentColumns([]string{"article_ids", "origin", "size_estimate", "cached_at"}),
		}).Create(&entry).Error
	if err != nil {
		s.log.Warn("put page failed", zap.String("source", source), zap.Int("page", pageNum), zap.Error(err))
		return false
	}
	return true
}

// MergedPages flattens every cached page for a source into one list, in page
// order, deduplicated on article id.
func (s *ArticleStore) MergedPages(ctx context.Context, source string) []models.Article {
	ctx = ensureContext(ctx)

	var entries []models.PageEntry
	if err := s.db.WithContext(ctx).
		Where("source = ?", source).
		Order("page_num ASC").
		Find(&entries).Error; err != nil {
		s.log.Warn("merge pages failed", zap.String("source", source), zap.Error(err))
		return nil
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, entry := range entries {
		for _, id := range entry.IDList() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	merged, _ := s.articlesInOrder(ctx, ids)
	return merged
}

// PageSizeEstimate reports the recorded byte estimate for a cached page, or 0.
func (s *ArticleStore) PageSizeEstimate(ctx context.Context, source string, pageNum int) int64 {
	ctx = ensureContext(ctx)

	var entry models.PageEntry
	if err := s.db.WithContext(ctx).
		Take(&entry, "source = ? AND page_num = ?", source, pageNum).Error; err != nil {
		return 0
	}
	return entry.SizeEstimate
}

// ClearPages drops every page entry for a source; with an empty source it
// clears the whole page cache. Article records are untouched.
func (s *ArticleStore) ClearPages(ctx context.Context, source string) bool {
	ctx = ensureContext(ctx)

	tx := s.db.WithContext(ctx)
	if source != "" {
		tx = tx.Where("source = ?", source)
	} else {
		tx = tx.Where("1 = 1")
	}
	if err := tx.Delete(&models.PageEntry{}).Error; err != nil {
		s.log.Warn("clear pages failed", zap.String("source", source), zap.Error(err))
		return false
	}
	return true
}

// dropPagesReferencing evicts every page entry whose recorded sequence
// includes one of the given article ids.
func (s *ArticleStore) dropPagesReferencing(ctx context.Context, ids []string) {
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}

	var entries []models.PageEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		s.log.Warn("scan page entries failed", zap.Error(err))
		return
	}

	for _, entry := range entries {
		stale := false
		for _, id := range entry.IDList() {
			if _, hit := gone[id]; hit {
				stale = true
				break
			}
		}
		if !stale {
			continue
		}
		if err := s.db.WithContext(ctx).
			Where("source = ? AND page_num = ?", entry.Source, entry.PageNum).
			Delete(&models.PageEntry{}).Error; err != nil {
			s.log.Warn("evict stale page failed",
				zap.String("source", entry.Source), zap.Int("page", entry.PageNum), zap.Error(err))
		}
	}
}

// articlesInOrder resolves ids to records, preserving the given sequence. The
// boolean is false only when the lookup itself fails; unresolvable ids are
// skipped and the caller decides what a short result means.
func (s *ArticleStore) articlesInOrder(ctx context.Context, ids []string) ([]models.Article, bool) {
	if len(ids) == 0 {
		return nil, true
	}

	var rows []models.Article
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		s.log.Warn("resolve article ids failed", zap.Error(err))
		return nil, false
	}

	byID := make(map[string]models.Article, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		if article, ok := byID[id]; ok {
			out = append(out, article)
		}
	}
	return out, true
}

func estimateArticleSize(a models.Article) int64 {
	return int64(len(a.ID) + len(a.Title) + len(a.Description) + len(a.URL) +
		len(a.Author) + len(a.ImageURL) + len(a.Categories))
}
