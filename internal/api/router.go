// Package api assembles the Gin engine from the handlers and middleware.
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avandyck/newsdock/internal/download"
	"github.com/avandyck/newsdock/internal/handlers"
	"github.com/avandyck/newsdock/internal/middleware"
	"github.com/avandyck/newsdock/internal/store"
	"github.com/avandyck/newsdock/internal/syncqueue"
)

// Deps collects the services exposed over HTTP.
type Deps struct {
	Articles  *store.ArticleStore
	Fetcher   handlers.Fetcher
	Processor *syncqueue.Processor
	Downloads *download.Controller
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Articles == nil {
		return nil, fmt.Errorf("article store must be provided")
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher must be provided")
	}
	if deps.Processor == nil {
		return nil, fmt.Errorf("sync processor must be provided")
	}
	if deps.Downloads == nil {
		return nil, fmt.Errorf("download controller must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	articleHandler, err := handlers.NewArticleHandler(deps.Fetcher, deps.Articles)
	if err != nil {
		return nil, err
	}
	syncHandler, err := handlers.NewSyncHandler(deps.Processor, deps.Articles)
	if err != nil {
		return nil, err
	}
	downloadHandler, err := handlers.NewDownloadHandler(deps.Downloads)
	if err != nil {
		return nil, err
	}
	statsHandler, err := handlers.NewStatsHandler(deps.Articles)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")

	articles := api.Group("/articles")
	{
		articles.GET("", articleHandler.List)
		articles.GET("/:id", articleHandler.Get)
		articles.POST("/:id/save", articleHandler.Save)
		articles.POST("/:id/read", articleHandler.Read)
		articles.POST("/:id/bookmark", articleHandler.Bookmark)
	}

	api.GET("/search", articleHandler.Search)
	api.GET("/stats", statsHandler.Get)

	api.GET("/outbox", syncHandler.Outbox)
	api.POST("/sync", syncHandler.Drain)

	downloads := api.Group("/downloads")
	{
		downloads.POST("/auto", downloadHandler.Auto)
		downloads.POST("/manual", downloadHandler.Manual)
		downloads.GET("/estimate", downloadHandler.Estimate)
	}

	return r, nil
}
