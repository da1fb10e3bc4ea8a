package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/avandyck/newsdock/internal/store"
	"github.com/avandyck/newsdock/pkg/logger"
)

const (
	defaultRetentionDays = 30
	defaultPurgeSpec     = "@daily"
	defaultSearchSpec    = "@hourly"
)

// Cleaner coordinates background maintenance: purging stale cached articles
// past the retention window and evicting expired search-cache entries.
// Offline-saved articles and the outbox are never touched.
type Cleaner struct {
	articles  *store.ArticleStore
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	enabled   bool
	retention int

	purgeSchedule  string
	searchSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling and retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithRetentionDays adjusts how long unsaved cached articles are retained.
func WithRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithPurgeSchedule overrides the cron specification for the retention purge.
func WithPurgeSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.purgeSchedule = spec
		}
	}
}

// WithSearchSchedule overrides the cron specification for search-cache eviction.
func WithSearchSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.searchSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil store results
// in all jobs being skipped.
func NewCleaner(articles *store.ArticleStore, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		articles:       articles,
		now:            time.Now,
		retention:      defaultRetentionDays,
		purgeSchedule:  defaultPurgeSpec,
		searchSchedule: defaultSearchSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.articles != nil

	return cleaner
}

// Start registers maintenance jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.retention > 0 {
		if _, err := c.cron.AddFunc(c.purgeSchedule, func() {
			purged := c.articles.PurgeOlderThan(context.Background(), c.retention)
			if purged > 0 {
				c.log.Info("retention purge removed articles", zap.Int64("count", purged))
			}
		}); err != nil {
			return err
		}
	}

	if _, err := c.cron.AddFunc(c.searchSchedule, func() {
		evicted := c.articles.EvictExpiredSearches(context.Background())
		if evicted > 0 {
			c.log.Info("evicted expired search entries", zap.Int64("count", evicted))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// CleanupStats captures the number of records removed by one maintenance pass.
type CleanupStats struct {
	Purged  int64
	Evicted int64
}

// RunOnce executes all maintenance routines sequentially. Primarily used in
// tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) CleanupStats {
	if ctx == nil {
		ctx = context.Background()
	}
	if !c.enabled {
		return CleanupStats{}
	}

	stats := CleanupStats{}
	if c.retention > 0 {
		stats.Purged = c.articles.PurgeOlderThan(ctx, c.retention)
	}
	stats.Evicted = c.articles.EvictExpiredSearches(ctx)
	return stats
}
