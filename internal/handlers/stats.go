package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avandyck/newsdock/internal/store"
	appErrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/response"
)

// StatsHandler reports storage statistics.
type StatsHandler struct {
	articles *store.ArticleStore
}

// NewStatsHandler constructs a stats handler.
func NewStatsHandler(articles *store.ArticleStore) (*StatsHandler, error) {
	if articles == nil {
		return nil, appErrors.New("INVALID_HANDLER", "article store must be provided", http.StatusInternalServerError)
	}
	return &StatsHandler{articles: articles}, nil
}

// Get returns current storage statistics. Statistics collection never fails;
// unavailable sub-counts simply report zero.
func (h *StatsHandler) Get(c *gin.Context) {
	response.Success(c, http.StatusOK, h.articles.Stats(c.Request.Context()))
}
