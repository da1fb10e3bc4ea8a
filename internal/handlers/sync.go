package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avandyck/newsdock/internal/store"
	"github.com/avandyck/newsdock/internal/syncqueue"
	appErrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/response"
)

// SyncHandler exposes the outbox and its drain trigger.
type SyncHandler struct {
	processor *syncqueue.Processor
	articles  *store.ArticleStore
}

// NewSyncHandler constructs a sync handler.
func NewSyncHandler(processor *syncqueue.Processor, articles *store.ArticleStore) (*SyncHandler, error) {
	if processor == nil {
		return nil, appErrors.New("INVALID_HANDLER", "sync processor must be provided", http.StatusInternalServerError)
	}
	if articles == nil {
		return nil, appErrors.New("INVALID_HANDLER", "article store must be provided", http.StatusInternalServerError)
	}
	return &SyncHandler{processor: processor, articles: articles}, nil
}

// Outbox lists every recorded action with its status.
func (h *SyncHandler) Outbox(c *gin.Context) {
	actions := h.articles.ListActions(c.Request.Context())
	response.Success(c, http.StatusOK, actions)
}

// Drain processes the pending outbox snapshot and reports the outcome.
func (h *SyncHandler) Drain(c *gin.Context) {
	report, err := h.processor.Drain(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
