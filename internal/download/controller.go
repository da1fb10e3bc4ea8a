// Package download drives bulk prefetching of listing pages so the catalog
// stays readable offline. Automatic prefetch runs at most once per session
// behind environment gates; manual prefetch is user-confirmed and reports
// progress as it goes.
package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/avandyck/newsdock/internal/advisor"
	"github.com/avandyck/newsdock/internal/database"
	"github.com/avandyck/newsdock/internal/gateway"
	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/internal/orchestrator"
	"github.com/avandyck/newsdock/internal/store"
	apperrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/logger"
	"github.com/avandyck/newsdock/pkg/metrics"
)

// fallback per-page size when a page has never been cached
const defaultPageEstimate = 50 << 10

// Fetcher resolves one page request. Satisfied by orchestrator.Orchestrator.
type Fetcher interface {
	FetchArticles(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// ProgressFunc receives the running download count and cumulative byte
// estimate after each page.
type ProgressFunc func(downloaded int, bytes int64)

// Summary reports the outcome of one bulk download.
type Summary struct {
	Requested  int   `json:"requested"`
	Downloaded int   `json:"downloaded"`
	Failed     int   `json:"failed"`
	Bytes      int64 `json:"bytes"`
	Canceled   bool  `json:"canceled"`
}

// Config tunes the controller.
type Config struct {
	Category         string
	Language         string
	PageSize         int
	AutoPages        int     // pages 1..AutoPages prefetched automatically
	StorageThreshold float64 // auto prefetch skipped at or above this usage
}

// Controller coordinates automatic and manual prefetch.
type Controller struct {
	fetch Fetcher
	store *store.ArticleStore
	db    *gorm.DB
	adv   advisor.Advisor
	cfg   Config
	busy  atomic.Bool
	log   *zap.Logger
}

// Option customizes a Controller.
type Option func(*Controller)

// WithAdvisor supplies the environment signals gating automatic prefetch.
func WithAdvisor(adv advisor.Advisor) Option {
	return func(c *Controller) {
		if adv != nil {
			c.adv = adv
		}
	}
}

// NewController constructs a Controller and clears the per-session
// auto-prefetch marker left over from a previous run.
func NewController(fetch Fetcher, articles *store.ArticleStore, db *gorm.DB, cfg Config, opts ...Option) (*Controller, error) {
	if fetch == nil {
		return nil, errors.New("download: fetcher is required")
	}
	if articles == nil {
		return nil, errors.New("download: store is required")
	}
	if db == nil {
		return nil, errors.New("download: database is required")
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.AutoPages <= 0 {
		cfg.AutoPages = 2
	}
	if cfg.StorageThreshold <= 0 {
		cfg.StorageThreshold = 0.8
	}

	c := &Controller{
		fetch: fetch,
		store: articles,
		db:    db,
		adv:   advisor.Permissive{},
		cfg:   cfg,
		log:   logger.WithModule("download"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := database.DeleteSetting(context.Background(), db, database.AutoDownloadRanSetting); err != nil {
		c.log.Warn("reset auto-download marker failed", zap.Error(err))
	}
	return c, nil
}

// AutoDownload prefetches the configured leading pages when the environment
// allows. It runs at most once per session: the marker is written only after
// every gate passes, so a gated skip leaves the next attempt free to try
// again. Page failures are logged, never surfaced. The returned bool reports
// whether a prefetch actually ran.
func (c *Controller) AutoDownload(ctx context.Context) (Summary, bool) {
	ran, err := database.GetSetting(ctx, c.db, database.AutoDownloadRanSetting)
	if err != nil {
		c.log.Warn("read auto-download marker failed", zap.Error(err))
	}
	if ran == "true" {
		c.log.Debug("auto download already ran this session")
		return Summary{}, false
	}

	if reason, ok := c.gatesPass(); !ok {
		c.log.Info("auto download gated", zap.String("reason", reason))
		return Summary{}, false
	}

	if !c.busy.CompareAndSwap(false, true) {
		c.log.Debug("download already in progress, skipping auto run")
		return Summary{}, false
	}
	defer c.busy.Store(false)

	if err := database.UpsertSetting(ctx, c.db, database.AutoDownloadRanSetting, "true"); err != nil {
		c.log.Warn("write auto-download marker failed", zap.Error(err))
	}

	pages := make([]int, 0, c.cfg.AutoPages)
	for p := 1; p <= c.cfg.AutoPages; p++ {
		pages = append(pages, p)
	}
	summary := c.run(ctx, pages, "auto", nil)
	c.log.Info("auto download finished",
		zap.Int("downloaded", summary.Downloaded), zap.Int("failed", summary.Failed))
	return summary, true
}

// gatesPass evaluates the advisor signals. A nil signal means the platform
// cannot answer and skips only that gate.
func (c *Controller) gatesPass() (string, bool) {
	signals := c.adv.Signals()

	if signals.Online != nil && !*signals.Online {
		return "offline", false
	}
	if signals.Connection != nil && *signals.Connection == advisor.ConnectionMetered {
		return "metered connection", false
	}
	if signals.PowerOK != nil && !*signals.PowerOK {
		return "low power", false
	}
	if signals.StorageUsage != nil && *signals.StorageUsage >= c.cfg.StorageThreshold {
		return fmt.Sprintf("storage usage %.0f%%", *signals.StorageUsage*100), false
	}
	return "", true
}

// ManualDownload prefetches the given pages sequentially. Callers are
// expected to confirm against EstimateSize first. Cancellation is checked
// between pages; already-downloaded pages stay cached.
func (c *Controller) ManualDownload(ctx context.Context, pages []int, progress ProgressFunc) (Summary, error) {
	if len(pages) == 0 {
		return Summary{}, apperrors.NewBadRequest("no pages requested")
	}
	for _, p := range pages {
		if p < 1 {
			return Summary{}, apperrors.NewBadRequest(fmt.Sprintf("invalid page number %d", p))
		}
	}

	if !c.busy.CompareAndSwap(false, true) {
		return Summary{}, apperrors.ErrDownloadBusy
	}
	defer c.busy.Store(false)

	return c.run(ctx, pages, "manual", progress), nil
}

func (c *Controller) run(ctx context.Context, pages []int, origin string, progress ProgressFunc) Summary {
	summary := Summary{Requested: len(pages)}

	for _, page := range pages {
		if ctx.Err() != nil {
			summary.Canceled = true
			c.log.Info("download canceled",
				zap.String("origin", origin), zap.Int("downloaded", summary.Downloaded))
			break
		}

		bytes, err := c.downloadPage(ctx, page, origin)
		if err != nil {
			summary.Failed++
			metrics.DownloadPages.WithLabelValues(origin, "failed").Inc()
			c.log.Warn("page download failed",
				zap.String("origin", origin), zap.Int("page", page), zap.Error(err))
			continue
		}

		summary.Downloaded++
		summary.Bytes += bytes
		metrics.DownloadPages.WithLabelValues(origin, "downloaded").Inc()
		if progress != nil {
			progress(summary.Downloaded, summary.Bytes)
		}
	}
	return summary
}

// downloadPage fetches one page live. Anything answered by a cache tier
// means no fresh data arrived, which counts as a failure here.
func (c *Controller) downloadPage(ctx context.Context, page int, origin string) (int64, error) {
	result, err := c.fetch.FetchArticles(ctx, orchestrator.Request{
		Kind:     gateway.KindListing,
		Category: c.cfg.Category,
		Language: c.cfg.Language,
		Page:     page,
		PageSize: c.cfg.PageSize,
		Online:   true,
	})
	if err != nil {
		return 0, err
	}
	if result.Provenance != orchestrator.ProvenanceNetwork {
		return 0, fmt.Errorf("download: page %d answered from %s, no fresh data", page, result.Provenance)
	}

	if origin == "manual" {
		// Re-tag the cached page so retention treats it as user-requested.
		if !c.store.PutPage(ctx, c.source(), page, result.Articles, models.PageOriginManual) {
			c.log.Warn("re-tagging manual page failed", zap.Int("page", page))
		}
	}
	return c.store.PageSizeEstimate(ctx, c.source(), page), nil
}

// EstimateSize predicts the footprint of downloading the given pages, using
// cached page sizes where known and a flat per-page figure otherwise.
func (c *Controller) EstimateSize(ctx context.Context, pages []int) int64 {
	var total int64
	for _, page := range pages {
		if size := c.store.PageSizeEstimate(ctx, c.source(), page); size > 0 {
			total += size
			continue
		}
		total += defaultPageEstimate
	}
	return total
}

func (c *Controller) source() string {
	if category := strings.ToLower(strings.TrimSpace(c.cfg.Category)); category != "" {
		return "category:" + category
	}
	return "listing"
}
