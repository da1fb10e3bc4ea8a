package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/avandyck/newsdock/internal/advisor"
	"github.com/avandyck/newsdock/internal/api"
	"github.com/avandyck/newsdock/internal/app"
	"github.com/avandyck/newsdock/internal/app/maintenance"
	"github.com/avandyck/newsdock/internal/database"
	"github.com/avandyck/newsdock/internal/download"
	"github.com/avandyck/newsdock/internal/gateway"
	"github.com/avandyck/newsdock/internal/orchestrator"
	"github.com/avandyck/newsdock/internal/store"
	"github.com/avandyck/newsdock/internal/syncqueue"
	"github.com/avandyck/newsdock/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Articles  *store.ArticleStore
	Pipeline  *orchestrator.Orchestrator
	Processor *syncqueue.Processor
	Downloads *download.Controller
	Cleaner   *maintenance.Cleaner
	Router    *gin.Engine
}

// bootstrapRuntime initialises the store, pipeline, background services, and
// the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	disk := advisor.NewDisk(cfg.Database.Path, cfg.Storage.QuotaMB<<20)

	stack.Articles, err = store.NewArticleStore(stack.DB,
		store.WithSearchTTL(cfg.Cache.SearchTTL),
		store.WithUsageFunc(disk.UsageFraction))
	if err != nil {
		return nil, fmt.Errorf("initialise article store: %w", err)
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:  cfg.Network.BaseURL,
		APIKey:   cfg.Network.APIKey,
		Language: cfg.Network.Language,
		Timeout:  cfg.Network.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise network gateway: %w", err)
	}

	stack.Pipeline, err = orchestrator.New(stack.Articles, client)
	if err != nil {
		return nil, fmt.Errorf("initialise fetch pipeline: %w", err)
	}

	stack.Processor, err = initialiseSyncQueue(cfg, stack.Articles)
	if err != nil {
		return nil, err
	}

	stack.Downloads, err = download.NewController(stack.Pipeline, stack.Articles, stack.DB, download.Config{
		Category:         cfg.Downloads.Category,
		Language:         cfg.Network.Language,
		PageSize:         cfg.Downloads.PageSize,
		AutoPages:        cfg.Downloads.AutoPages,
		StorageThreshold: cfg.Downloads.StorageThreshold,
	}, download.WithAdvisor(disk))
	if err != nil {
		return nil, fmt.Errorf("initialise download controller: %w", err)
	}

	stack.Cleaner = maintenance.NewCleaner(stack.Articles,
		maintenance.WithRetentionDays(cfg.Cache.RetentionDays))
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Deps{
		Articles:  stack.Articles,
		Fetcher:   stack.Pipeline,
		Processor: stack.Processor,
		Downloads: stack.Downloads,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	return stack, nil
}

// initialiseSyncQueue wires the outbox processor. Without a configured sync
// endpoint the outbox still records actions; draining just has nowhere to
// deliver them, so the processor is built against a disabled executor.
func initialiseSyncQueue(cfg *app.Config, articles *store.ArticleStore) (*syncqueue.Processor, error) {
	var exec syncqueue.ActionExecutor
	if strings.TrimSpace(cfg.Sync.Endpoint) != "" {
		httpExec, err := syncqueue.NewHTTPExecutor(syncqueue.HTTPConfig{
			BaseURL: cfg.Sync.Endpoint,
			APIKey:  cfg.Sync.APIKey,
			Timeout: cfg.Sync.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise sync executor: %w", err)
		}
		exec = httpExec
	} else {
		exec = syncqueue.NopExecutor{}
	}

	processor, err := syncqueue.NewProcessor(articles, exec)
	if err != nil {
		return nil, fmt.Errorf("initialise sync processor: %w", err)
	}
	return processor, nil
}

// Shutdown stops background jobs and closes the database.
func (s *runtimeStack) Shutdown(log *zap.Logger) error {
	var errs error

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		stats := s.Cleaner.RunOnce(context.Background())
		log.Info("final maintenance pass",
			zap.Int64("purged", stats.Purged), zap.Int64("evicted", stats.Evicted))
	}

	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resolve sql db: %w", err))
		} else if err := sqlDB.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	return errs
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}
	if dbCfg.Driver == "" {
		dbCfg.Driver = "sqlite"
	}

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database ready",
		zap.String("driver", dbCfg.Driver), zap.String("path", dbCfg.Path))

	return db, nil
}
