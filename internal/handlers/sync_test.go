package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/avandyck/newsdock/internal/database/testutil"
	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/internal/store"
	"github.com/avandyck/newsdock/internal/syncqueue"
)

type okExecutor struct{}

func (okExecutor) Execute(ctx context.Context, action models.OutboxAction) error { return nil }

func newSyncHarness(t *testing.T) (*gin.Engine, *store.ArticleStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	articles, err := store.NewArticleStore(db)
	require.NoError(t, err)

	processor, err := syncqueue.NewProcessor(articles, okExecutor{})
	require.NoError(t, err)

	h, err := NewSyncHandler(processor, articles)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/api/outbox", h.Outbox)
	r.POST("/api/sync", h.Drain)
	return r, articles
}

func TestSyncEndpointDrainsOutbox(t *testing.T) {
	r, articles := newSyncHarness(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok := articles.EnqueueAction(ctx, models.ActionMarkRead, map[string]any{"article_id": "a1"})
		require.True(t, ok)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data syncqueue.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, syncqueue.Report{Processed: 2, Completed: 2}, body.Data)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/outbox", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), models.ActionStatusCompleted)
	require.NotContains(t, w.Body.String(), `"status":"pending"`)
}
