package syncqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/avandyck/newsdock/internal/models"
)

// Typed payloads carried by outbox actions. Handlers enqueue them as loose
// maps; the executor decodes them back before talking to the remote side.
type (
	// SavePayload records toggling an article's offline-saved flag.
	SavePayload struct {
		ArticleID string `mapstructure:"article_id" json:"article_id"`
		Saved     bool   `mapstructure:"saved" json:"saved"`
	}

	// ReadPayload records an article being opened.
	ReadPayload struct {
		ArticleID string `mapstructure:"article_id" json:"article_id"`
	}

	// BookmarkPayload records toggling a bookmark.
	BookmarkPayload struct {
		ArticleID  string `mapstructure:"article_id" json:"article_id"`
		Bookmarked bool   `mapstructure:"bookmarked" json:"bookmarked"`
	}

	// SettingPayload records a changed preference.
	SettingPayload struct {
		Key   string `mapstructure:"key" json:"key"`
		Value string `mapstructure:"value" json:"value"`
	}
)

// HTTPConfig configures the remote sync endpoint.
type HTTPConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPExecutor posts each action to the remote sync API. One action type
// maps to one endpoint path.
type HTTPExecutor struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPExecutor constructs an HTTPExecutor.
func NewHTTPExecutor(cfg HTTPConfig) (*HTTPExecutor, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("syncqueue: sync base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPExecutor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

var actionPaths = map[string]string{
	models.ActionSaveArticle:   "/sync/articles/save",
	models.ActionMarkRead:      "/sync/articles/read",
	models.ActionBookmark:      "/sync/articles/bookmark",
	models.ActionSettingChange: "/sync/settings",
}

// Execute decodes the action payload into its typed form and posts it.
func (e *HTTPExecutor) Execute(ctx context.Context, action models.OutboxAction) error {
	path, ok := actionPaths[action.Type]
	if !ok {
		return fmt.Errorf("syncqueue: unknown action type %q", action.Type)
	}

	body, err := e.encode(action)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("syncqueue: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("syncqueue: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("syncqueue: post %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// encode validates the raw payload against its typed form and re-serializes
// it, so malformed payloads fail here instead of at the remote side.
func (e *HTTPExecutor) encode(action models.OutboxAction) ([]byte, error) {
	raw := map[string]any{}
	if len(action.Payload) > 0 {
		if err := json.Unmarshal(action.Payload, &raw); err != nil {
			return nil, fmt.Errorf("syncqueue: decode payload: %w", err)
		}
	}

	var typed any
	switch action.Type {
	case models.ActionSaveArticle:
		typed = &SavePayload{}
	case models.ActionMarkRead:
		typed = &ReadPayload{}
	case models.ActionBookmark:
		typed = &BookmarkPayload{}
	case models.ActionSettingChange:
		typed = &SettingPayload{}
	}
	if err := mapstructure.Decode(raw, typed); err != nil {
		return nil, fmt.Errorf("syncqueue: decode %s payload: %w", action.Type, err)
	}

	switch v := typed.(type) {
	case *SavePayload:
		if v.ArticleID == "" {
			return nil, fmt.Errorf("syncqueue: %s payload missing article_id", action.Type)
		}
	case *ReadPayload:
		if v.ArticleID == "" {
			return nil, fmt.Errorf("syncqueue: %s payload missing article_id", action.Type)
		}
	case *BookmarkPayload:
		if v.ArticleID == "" {
			return nil, fmt.Errorf("syncqueue: %s payload missing article_id", action.Type)
		}
	case *SettingPayload:
		if v.Key == "" {
			return nil, fmt.Errorf("syncqueue: %s payload missing key", action.Type)
		}
	}

	return json.Marshal(typed)
}
