package syncqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avandyck/newsdock/internal/advisor"
	"github.com/avandyck/newsdock/internal/database/testutil"
	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/internal/store"
)

type scriptedExecutor struct {
	mu       sync.Mutex
	executed []string
	failIDs  map[string]bool
	block    chan struct{}
}

func (f *scriptedExecutor) Execute(ctx context.Context, action models.OutboxAction) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, action.ID)
	if f.failIDs[action.ID] {
		return errors.New("remote rejected")
	}
	return nil
}

func (f *scriptedExecutor) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func newTestQueue(t *testing.T, exec ActionExecutor, opts ...Option) (*Processor, *store.ArticleStore) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	articles, err := store.NewArticleStore(db)
	require.NoError(t, err)
	p, err := NewProcessor(articles, exec, opts...)
	require.NoError(t, err)
	return p, articles
}

func enqueue(t *testing.T, articles *store.ArticleStore, n int) []models.OutboxAction {
	t.Helper()
	actions := make([]models.OutboxAction, 0, n)
	for i := 0; i < n; i++ {
		action, ok := articles.EnqueueAction(context.Background(), models.ActionMarkRead,
			map[string]any{"article_id": "art-1"})
		require.True(t, ok)
		actions = append(actions, action)
	}
	return actions
}

// A drain with one failing action completes the others, records the failure,
// leaves nothing pending, and a second drain has nothing left to do.
func TestDrainIsolatesFailures(t *testing.T) {
	exec := &scriptedExecutor{failIDs: map[string]bool{}}
	p, articles := newTestQueue(t, exec)
	ctx := context.Background()

	actions := enqueue(t, articles, 3)
	exec.failIDs[actions[1].ID] = true

	report, err := p.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, Report{Processed: 3, Completed: 2, Failed: 1}, report)

	require.Empty(t, articles.PendingActions(ctx))
	for _, a := range articles.ListActions(ctx) {
		if a.ID == actions[1].ID {
			require.Equal(t, models.ActionStatusFailed, a.Status)
		} else {
			require.Equal(t, models.ActionStatusCompleted, a.Status)
		}
	}

	// Failed actions are terminal and never picked up again.
	report, err = p.Drain(ctx)
	require.NoError(t, err)
	require.Zero(t, report.Processed)
}

func TestDrainExecutesInEnqueueOrder(t *testing.T) {
	exec := &scriptedExecutor{}
	p, articles := newTestQueue(t, exec)

	actions := enqueue(t, articles, 4)

	_, err := p.Drain(context.Background())
	require.NoError(t, err)

	wantOrder := make([]string, 0, len(actions))
	for _, a := range actions {
		wantOrder = append(wantOrder, a.ID)
	}
	require.Equal(t, wantOrder, exec.order())
}

func TestConcurrentDrainIsRejected(t *testing.T) {
	release := make(chan struct{})
	exec := &scriptedExecutor{block: release}
	p, articles := newTestQueue(t, exec)
	enqueue(t, articles, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		report, err := p.Drain(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, report.Processed)
	}()

	// Second drain while the first is mid-flight is a no-op.
	time.Sleep(50 * time.Millisecond)
	report, err := p.Drain(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Processed)

	close(release)
	wg.Wait()
}

func TestDrainDefersWhileOffline(t *testing.T) {
	exec := &scriptedExecutor{}
	p, articles := newTestQueue(t, exec,
		WithAdvisor(advisor.Static{Reading: advisor.Signals{Online: advisor.Bool(false)}}))
	ctx := context.Background()
	enqueue(t, articles, 2)

	report, err := p.Drain(ctx)
	require.NoError(t, err)
	require.Zero(t, report.Processed)
	require.Len(t, articles.PendingActions(ctx), 2)
	require.Empty(t, exec.order())
}

func TestDrainStopsBetweenActionsOnCancel(t *testing.T) {
	exec := &scriptedExecutor{}
	p, articles := newTestQueue(t, exec)

	enqueue(t, articles, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Drain(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, report.Processed)
	require.Len(t, articles.PendingActions(context.Background()), 3)
}

func TestHTTPExecutorPostsTypedPayloads(t *testing.T) {
	var gotPath, gotBody, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec, err := NewHTTPExecutor(HTTPConfig{BaseURL: server.URL, APIKey: "secret"})
	require.NoError(t, err)

	err = exec.Execute(context.Background(), models.OutboxAction{
		Type:    models.ActionBookmark,
		Payload: []byte(`{"article_id":"abc123","bookmarked":true}`),
	})
	require.NoError(t, err)
	require.Equal(t, "/sync/articles/bookmark", gotPath)
	require.Equal(t, "secret", gotKey)
	require.JSONEq(t, `{"article_id":"abc123","bookmarked":true}`, gotBody)
}

func TestHTTPExecutorRejectsMalformedPayloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("malformed payloads must not reach the remote side")
	}))
	defer server.Close()

	exec, err := NewHTTPExecutor(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	ctx := context.Background()

	err = exec.Execute(ctx, models.OutboxAction{
		Type:    models.ActionSaveArticle,
		Payload: []byte(`{"saved":true}`),
	})
	require.ErrorContains(t, err, "missing article_id")

	err = exec.Execute(ctx, models.OutboxAction{Type: "article.destroy"})
	require.ErrorContains(t, err, "unknown action type")
}

func TestHTTPExecutorSurfacesRemoteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	exec, err := NewHTTPExecutor(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)

	err = exec.Execute(context.Background(), models.OutboxAction{
		Type:    models.ActionMarkRead,
		Payload: []byte(`{"article_id":"abc123"}`),
	})
	require.ErrorContains(t, err, "unexpected status 502")
}
