package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avandyck/newsdock/internal/gateway"
	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/internal/orchestrator"
	"github.com/avandyck/newsdock/internal/store"
	appErrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/response"
)

// Fetcher resolves listing and search requests through the tiered pipeline.
type Fetcher interface {
	FetchArticles(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// ArticleHandler exposes the catalog: tiered listing, search, and the local
// article mutations that feed the outbox.
type ArticleHandler struct {
	fetch    Fetcher
	articles *store.ArticleStore
}

// NewArticleHandler constructs an article handler.
func NewArticleHandler(fetch Fetcher, articles *store.ArticleStore) (*ArticleHandler, error) {
	if fetch == nil {
		return nil, appErrors.New("INVALID_HANDLER", "fetcher must be provided", http.StatusInternalServerError)
	}
	if articles == nil {
		return nil, appErrors.New("INVALID_HANDLER", "article store must be provided", http.StatusInternalServerError)
	}
	return &ArticleHandler{fetch: fetch, articles: articles}, nil
}

// List serves one page of the catalog through the fallback chain.
func (h *ArticleHandler) List(c *gin.Context) {
	req := orchestrator.Request{
		Kind:     gateway.KindListing,
		Category: strings.TrimSpace(c.Query("category")),
		Language: strings.TrimSpace(c.Query("language")),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Online:   parseBoolQuery(c, "online", true),
	}

	result, err := h.fetch.FetchArticles(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Articles, resultMeta(result, req.PageSize))
}

// Search serves query results through the search chain.
func (h *ArticleHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, appErrors.NewBadRequest("q query parameter is required"))
		return
	}

	var filters models.SearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid search filters"))
		return
	}

	req := orchestrator.Request{
		Kind:     gateway.KindSearch,
		Query:    query,
		Filters:  filters,
		Language: strings.TrimSpace(c.Query("language")),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Online:   parseBoolQuery(c, "online", true),
	}

	result, err := h.fetch.FetchArticles(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, result.Articles, resultMeta(result, req.PageSize))
}

// Get returns one stored article by id.
func (h *ArticleHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	article, ok := h.articles.Article(c.Request.Context(), id)
	if !ok {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, article)
}

type saveInput struct {
	Saved *bool `json:"saved"`
}

// Save toggles an article's offline-saved flag and records the mutation in
// the outbox for later remote sync.
func (h *ArticleHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	saved := true
	var input saveInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
			return
		}
		if input.Saved != nil {
			saved = *input.Saved
		}
	}

	if _, ok := h.articles.Article(ctx, id); !ok {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if !h.articles.SetSavedOffline(ctx, id, saved) {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	h.enqueue(ctx, models.ActionSaveArticle, map[string]any{"article_id": id, "saved": saved})
	response.Success(c, http.StatusOK, gin.H{"id": id, "saved_offline": saved})
}

// Read marks an article as read.
func (h *ArticleHandler) Read(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	if _, ok := h.articles.Article(ctx, id); !ok {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if !h.articles.MarkRead(ctx, id) {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	h.enqueue(ctx, models.ActionMarkRead, map[string]any{"article_id": id})
	response.Success(c, http.StatusOK, gin.H{"id": id, "read": true})
}

type bookmarkInput struct {
	Bookmarked *bool `json:"bookmarked"`
}

// Bookmark toggles an article's bookmark flag.
func (h *ArticleHandler) Bookmark(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.TrimSpace(c.Param("id"))

	bookmarked := true
	var input bookmarkInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
			return
		}
		if input.Bookmarked != nil {
			bookmarked = *input.Bookmarked
		}
	}

	if _, ok := h.articles.Article(ctx, id); !ok {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if !h.articles.SetBookmarked(ctx, id, bookmarked) {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	h.enqueue(ctx, models.ActionBookmark, map[string]any{"article_id": id, "bookmarked": bookmarked})
	response.Success(c, http.StatusOK, gin.H{"id": id, "bookmarked": bookmarked})
}

// enqueue records the mutation for remote sync. A failed enqueue never fails
// the local mutation; the flag is already durable.
func (h *ArticleHandler) enqueue(ctx context.Context, actionType string, payload map[string]any) {
	h.articles.EnqueueAction(ctx, actionType, payload)
}

func resultMeta(result *orchestrator.Result, pageSize int) *response.Meta {
	return &response.Meta{
		Page:       result.Page,
		PerPage:    pageSize,
		Total:      result.TotalResults,
		Provenance: string(result.Provenance),
		Cached:     result.Cached,
	}
}
