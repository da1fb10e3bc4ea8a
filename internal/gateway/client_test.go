package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avandyck/newsdock/internal/models"
	apperrors "github.com/avandyck/newsdock/pkg/errors"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestFetchListingNormalisesArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/top-headlines", r.URL.Path)
		require.Equal(t, "world", r.URL.Query().Get("category"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 37,
			"articles": [
				{"source":{"id":"","name":"Example Wire"},"author":"","title":"Summit opens","description":"Leaders meet","url":"https://example.com/a","urlToImage":"https://example.com/a.jpg","publishedAt":"2026-08-20T10:00:00Z"},
				{"source":{"id":"x","name":"X"},"author":"A. Reporter","title":"Talks stall","description":"","url":"https://example.com/b","publishedAt":"2026-08-20T11:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret", Language: "en"})
	require.NoError(t, err)

	resp, err := client.Fetch(context.Background(), Request{
		Kind:     KindCategory,
		Category: "World",
		Page:     2,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Articles, 2)
	require.Equal(t, 37, resp.TotalResults)
	require.True(t, resp.HasMore)

	first := resp.Articles[0]
	require.Equal(t, models.ArticleID("https://example.com/a"), first.ID)
	require.Equal(t, "Example Wire", first.Author) // source name fallback
	require.Equal(t, []string{"world"}, first.CategoryList())

	require.Equal(t, "A. Reporter", resp.Articles[1].Author)
}

func TestFetchSearchUsesEverythingEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/everything", r.URL.Path)
		require.Equal(t, "climate", r.URL.Query().Get("q"))
		require.Equal(t, "2026-08-01", r.URL.Query().Get("from"))
		require.Equal(t, "example.com", r.URL.Query().Get("domains"))

		_, _ = w.Write([]byte(`{"status":"ok","totalResults":1,"articles":[{"title":"Heat","url":"https://example.com/c","publishedAt":"2026-08-21T08:00:00Z"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	require.NoError(t, err)

	resp, err := client.Fetch(context.Background(), Request{
		Kind:     KindSearch,
		Query:    "climate",
		Filters:  models.SearchFilters{StartDate: "2026-08-01", Domain: "example.com"},
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Articles, 1)
	require.False(t, resp.HasMore)
}

func TestFetchAuthRejectionIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "wrong"})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Request{Kind: KindListing, Page: 1, PageSize: 10})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrAuthInvalid.Code, appErr.Code)
	require.False(t, errors.Is(err, ErrTransient))
}

func TestFetchAuthCodeWithoutAuthStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyExhausted","message":"quota"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Request{Kind: KindListing, Page: 1})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrAuthInvalid.Code, appErr.Code)
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"status":"error","code":"serverError","message":"upstream down"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Request{Kind: KindListing, Page: 1})
	require.True(t, errors.Is(err, ErrTransient))
}

func TestFetchConnectionFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), Request{Kind: KindListing, Page: 1})
	require.True(t, errors.Is(err, ErrTransient))
}

func TestRequestSourceKeys(t *testing.T) {
	require.Equal(t, "listing", Request{Kind: KindListing}.Source())
	require.Equal(t, "category:world", Request{Kind: KindCategory, Category: " World "}.Source())
	require.Equal(t, "listing", Request{Kind: KindCategory}.Source())
}
