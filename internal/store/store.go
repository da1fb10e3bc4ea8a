// Package store implements the durable persistence layer: keyed article
// storage with predicate-filtered retrieval, a per-page cache, a TTL'd search
// cache, the offline action outbox, and storage accounting.
//
// Failure semantics are uniform: reads never surface errors (an unavailable
// store behaves as an empty cache) and writes report a boolean success flag.
// Failures are logged, not thrown.
package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/pkg/logger"
)

const defaultSearchTTL = 30 * time.Minute

// ArticleStore is the single mutable shared resource of the system. All
// mutation goes through its operation set; no other component touches the
// underlying tables.
type ArticleStore struct {
	db        *gorm.DB
	searchTTL time.Duration
	now       func() time.Time
	usage     func() float64
	log       *zap.Logger
}

// Option customises an ArticleStore.
type Option func(*ArticleStore)

// WithNow overrides the clock, primarily for TTL boundary tests.
func WithNow(now func() time.Time) Option {
	return func(s *ArticleStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSearchTTL sets the time-to-live applied to new search cache entries.
func WithSearchTTL(ttl time.Duration) Option {
	return func(s *ArticleStore) {
		if ttl > 0 {
			s.searchTTL = ttl
		}
	}
}

// WithUsageFunc supplies the storage usage fraction (0..1) reported by Stats.
func WithUsageFunc(usage func() float64) Option {
	return func(s *ArticleStore) {
		if usage != nil {
			s.usage = usage
		}
	}
}

// NewArticleStore constructs the store service.
func NewArticleStore(db *gorm.DB, opts ...Option) (*ArticleStore, error) {
	if db == nil {
		return nil, errors.New("article store: db is required")
	}

	s := &ArticleStore{
		db:        db,
		searchTTL: defaultSearchTTL,
		now:       time.Now,
		log:       logger.WithModule("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SaveArticle upserts a single record, marking its offline flag and stamping
// SavedAt. Idempotent on the article identifier.
func (s *ArticleStore) SaveArticle(ctx context.Context, article models.Article, savedOffline bool) bool {
	ctx = ensureContext(ctx)
	if article.ID == "" {
		article.ID = models.ArticleID(article.URL)
	}
	article.SavedOffline = savedOffline
	article.SavedAt = s.now()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description", "url", "author", "image_url",
				"published_at", "categories", "saved_offline", "saved_at", "updated_at",
			}),
		}).Create(&article).Error
	if err != nil {
		s.log.Warn("save article failed", zap.String("id", article.ID), zap.Error(err))
		return false
	}
	return true
}

// SaveArticles bulk-upserts fetched records. Content columns are refreshed;
// the offline, read, and bookmark flags of existing rows are preserved so a
// network refresh can never undo an explicit local save.
func (s *ArticleStore) SaveArticles(ctx context.Context, articles []models.Article) bool {
	if len(articles) == 0 {
		return true
	}
	ctx = ensureContext(ctx)

	now := s.now()
	for i := range articles {
		if articles[i].ID == "" {
			articles[i].ID = models.ArticleID(articles[i].URL)
		}
		if articles[i].SavedAt.IsZero() {
			articles[i].SavedAt = now
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description", "url", "author", "image_url",
				"published_at", "categories", "updated_at",
			}),
		}).Create(&articles).Error
	if err != nil {
		s.log.Warn("save articles failed", zap.Int("count", len(articles)), zap.Error(err))
		return false
	}
	return true
}

// Article loads one record by identifier.
func (s *ArticleStore) Article(ctx context.Context, id string) (models.Article, bool) {
	ctx = ensureContext(ctx)

	var article models.Article
	err := s.db.WithContext(ctx).Take(&article, "id = ?", id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("load article failed", zap.String("id", id), zap.Error(err))
		}
		return models.Article{}, false
	}
	return article, true
}

// QueryByPredicate returns slice(filter(all, pred), offset, offset+limit).
// A limit of zero or less is unbounded: the result runs from offset to the
// end of the filtered list. Offline fallbacks use this to scan everything.
//
// Lookups over boolean and status fields run as a full retrieval followed by
// an in-memory filter, never as an indexed equality or range query: engine
// behaviour for boolean index ranges is inconsistent, and the collection is
// bounded at a few thousand rows.
func (s *ArticleStore) QueryByPredicate(ctx context.Context, pred func(models.Article) bool, offset, limit int) []models.Article {
	ctx = ensureContext(ctx)

	var all []models.Article
	if err := s.db.WithContext(ctx).
		Order("published_at DESC, id ASC").
		Find(&all).Error; err != nil {
		s.log.Warn("predicate scan failed", zap.Error(err))
		return nil
	}

	var filtered []models.Article
	for _, article := range all {
		if pred == nil || pred(article) {
			filtered = append(filtered, article)
		}
	}

	return slicePage(filtered, offset, limit)
}

// QuerySavedOffline returns the offline-saved records in stable order.
func (s *ArticleStore) QuerySavedOffline(ctx context.Context, offset, limit int) []models.Article {
	return s.QueryByPredicate(ctx, func(a models.Article) bool { return a.SavedOffline }, offset, limit)
}

// SetSavedOffline flips the offline flag of an existing record.
func (s *ArticleStore) SetSavedOffline(ctx context.Context, id string, saved bool) bool {
	ctx = ensureContext(ctx)

	updates := map[string]any{"saved_offline": saved}
	if saved {
		updates["saved_at"] = s.now()
	}

	result := s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		s.log.Warn("set saved offline failed", zap.String("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected > 0
}

// MarkRead stamps a record as read.
func (s *ArticleStore) MarkRead(ctx context.Context, id string) bool {
	ctx = ensureContext(ctx)

	now := s.now()
	result := s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).
		Updates(map[string]any{"read": true, "read_at": now})
	if result.Error != nil {
		s.log.Warn("mark read failed", zap.String("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected > 0
}

// SetBookmarked flips the bookmark flag of an existing record.
func (s *ArticleStore) SetBookmarked(ctx context.Context, id string, bookmarked bool) bool {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).
		Update("bookmarked", bookmarked)
	if result.Error != nil {
		s.log.Warn("set bookmarked failed", zap.String("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected > 0
}

// slicePage applies the pagination slice law: out-of-range offsets yield an
// empty slice, never an error. A non-positive limit means no upper bound.
func slicePage(list []models.Article, offset, limit int) []models.Article {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
