package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avandyck/newsdock/internal/models"
	apperrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/logger"
)

const defaultTimeout = 15 * time.Second

// Config holds remote API connection options.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration
}

// Client talks to a NewsAPI-shaped JSON endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	log        *zap.Logger
}

// NewClient constructs a gateway client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		language:   strings.TrimSpace(cfg.Language),
		log:        logger.WithModule("gateway"),
	}, nil
}

// wire shapes of the upstream API.
type apiArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
}

type apiResponse struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

// Fetch performs the remote request for any kind.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, query := c.buildQuery(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	var body apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, apperrors.ErrAuthInvalid.WithInternal(fmt.Errorf("http %d: %s", resp.StatusCode, body.Message))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransient, decodeErr)
	}
	if body.Status == "error" {
		if isAuthCode(body.Code) {
			return nil, apperrors.ErrAuthInvalid.WithInternal(fmt.Errorf("%s: %s", body.Code, body.Message))
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrTransient, body.Code, body.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", ErrTransient, resp.StatusCode)
	}

	out := &Response{
		Articles:     make([]models.Article, 0, len(body.Articles)),
		TotalResults: body.TotalResults,
	}
	for _, wire := range body.Articles {
		out.Articles = append(out.Articles, c.normalise(wire, req))
	}

	// hasMore derives from the server-reported total, not from the length of
	// the fetched page.
	if req.PageSize > 0 {
		out.HasMore = req.Page*req.PageSize < body.TotalResults
	}

	c.log.Debug("remote fetch",
		zap.String("kind", string(req.Kind)),
		zap.Int("page", req.Page),
		zap.Int("returned", len(out.Articles)),
		zap.Int("total", out.TotalResults))

	return out, nil
}

func (c *Client) buildQuery(req Request) (string, url.Values) {
	query := url.Values{}
	if req.Page > 0 {
		query.Set("page", strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(req.PageSize))
	}

	language := req.Language
	if language == "" {
		language = c.language
	}
	if language != "" {
		query.Set("language", language)
	}

	if req.Kind == KindSearch {
		query.Set("q", req.Query)
		if req.Filters.StartDate != "" {
			query.Set("from", req.Filters.StartDate)
		}
		if req.Filters.EndDate != "" {
			query.Set("to", req.Filters.EndDate)
		}
		if req.Filters.Domain != "" {
			query.Set("domains", req.Filters.Domain)
		}
		if req.Filters.Category != "" {
			query.Set("category", req.Filters.Category)
		}
		return c.baseURL + "/everything", query
	}

	if req.Kind == KindCategory && req.Category != "" {
		query.Set("category", strings.ToLower(req.Category))
	}
	return c.baseURL + "/top-headlines", query
}

func (c *Client) normalise(wire apiArticle, req Request) models.Article {
	author := strings.TrimSpace(wire.Author)
	if author == "" {
		author = strings.TrimSpace(wire.Source.Name)
	}

	article := models.Article{
		ID:          models.ArticleID(wire.URL),
		Title:       strings.TrimSpace(wire.Title),
		Description: strings.TrimSpace(wire.Description),
		URL:         strings.TrimSpace(wire.URL),
		Author:      author,
		ImageURL:    strings.TrimSpace(wire.URLToImage),
		PublishedAt: wire.PublishedAt,
	}

	var tags []string
	if req.Kind == KindCategory && req.Category != "" {
		tags = append(tags, strings.ToLower(req.Category))
	}
	if req.Kind == KindSearch && req.Filters.Category != "" {
		tags = append(tags, strings.ToLower(req.Filters.Category))
	}
	article.SetCategories(tags)

	return article
}

func isAuthCode(code string) bool {
	switch code {
	case "apiKeyInvalid", "apiKeyMissing", "apiKeyDisabled", "apiKeyExhausted":
		return true
	}
	return false
}
