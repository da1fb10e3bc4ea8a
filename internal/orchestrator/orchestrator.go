// Package orchestrator routes each page or search request through the tiered
// chain of data sources (live network, page/search cache, offline saves) and
// tags every result with the tier that answered it.
package orchestrator

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/avandyck/newsdock/internal/gateway"
	"github.com/avandyck/newsdock/internal/models"
	"github.com/avandyck/newsdock/internal/store"
	apperrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/logger"
	"github.com/avandyck/newsdock/pkg/metrics"
)

// Provenance identifies which tier answered a fetch.
type Provenance string

const (
	ProvenanceNetwork       Provenance = "network"
	ProvenanceCache         Provenance = "cache"
	ProvenanceOffline       Provenance = "offline"
	ProvenanceMergedCache   Provenance = "merged-cache"
	ProvenanceSearchCache   Provenance = "search-cache"
	ProvenanceSearchNetwork Provenance = "search-network"
	ProvenanceSearchOffline Provenance = "search-offline"
	ProvenanceSearchEmpty   Provenance = "search-empty"
)

// Request is the immutable per-call context threaded through the pipeline.
// There is no shared session state; two concurrent requests never observe
// each other except through the store.
type Request struct {
	Kind     gateway.Kind
	Category string
	Query    string
	Language string
	Filters  models.SearchFilters
	Page     int
	PageSize int
	Online   bool
}

// Result is the contract rendered by the consumer: the records, where they
// came from, and whether they are live or cached. Consumers never need more
// than that to distinguish "older cached data" from "nothing available".
type Result struct {
	Articles     []models.Article `json:"articles"`
	Provenance   Provenance       `json:"provenance"`
	Page         int              `json:"page"`
	Cached       bool             `json:"cached"`
	TotalResults int              `json:"total_results,omitempty"`
}

// Gateway is the remote-source dependency.
type Gateway interface {
	Fetch(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// Orchestrator implements the tiered fetch pipeline.
type Orchestrator struct {
	store *store.ArticleStore
	gw    Gateway
	group singleflight.Group
	log   *zap.Logger
}

// New constructs the orchestrator.
func New(articles *store.ArticleStore, gw Gateway) (*Orchestrator, error) {
	if articles == nil {
		return nil, errors.New("orchestrator: store is required")
	}
	if gw == nil {
		return nil, errors.New("orchestrator: gateway is required")
	}
	return &Orchestrator{
		store: articles,
		gw:    gw,
		log:   logger.WithModule("orchestrator"),
	}, nil
}

// FetchArticles resolves one request through the fallback chain. Identical
// concurrent requests are collapsed into a single flight keyed by the request
// signature; distinct requests proceed independently.
func (o *Orchestrator) FetchArticles(ctx context.Context, req Request) (*Result, error) {
	req = normalise(req)

	v, err, _ := o.group.Do(req.Signature(), func() (interface{}, error) {
		if req.Kind == gateway.KindSearch {
			return o.fetchSearch(ctx, req)
		}
		return o.fetchListing(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// fetchListing walks the listing/category chain: network first when online,
// then offline saves, then the merged page cache. Each step runs strictly in
// order and only after the previous one came back empty or failed.
func (o *Orchestrator) fetchListing(ctx context.Context, req Request) (*Result, error) {
	source := req.gatewayRequest().Source()

	if !req.Online {
		if cached, ok := o.store.Page(ctx, source, req.Page); ok && len(cached) > 0 {
			return o.finish(req, cached, ProvenanceCache, 0), nil
		}
	} else {
		resp, err := o.gw.Fetch(ctx, req.gatewayRequest())
		switch {
		case err == nil && len(resp.Articles) > 0:
			if !o.store.PutPage(ctx, source, req.Page, resp.Articles, models.PageOriginAuto) {
				o.log.Warn("page write-back failed", zap.String("source", source), zap.Int("page", req.Page))
			}
			return o.finish(req, resp.Articles, ProvenanceNetwork, resp.TotalResults), nil
		case err != nil && !errors.Is(err, gateway.ErrTransient):
			// Credential rejection is terminal and surfaces immediately.
			if appErr := apperrors.FromError(err); appErr.Code == apperrors.ErrAuthInvalid.Code {
				return nil, err
			}
			fallthrough
		default:
			o.log.Debug("network tier missed, falling back",
				zap.String("source", source), zap.Int("page", req.Page), zap.Error(err))
		}
	}

	if saved := o.store.QuerySavedOffline(ctx, (req.Page-1)*req.PageSize, req.PageSize); len(saved) > 0 {
		return o.finish(req, saved, ProvenanceOffline, 0), nil
	}

	if merged := o.store.MergedPages(ctx, source); len(merged) > 0 {
		return o.finish(req, merged, ProvenanceMergedCache, 0), nil
	}

	metrics.FetchFailures.Inc()
	return nil, apperrors.ErrNoData
}

// fetchSearch walks the query-keyed chain. An empty terminal result is a
// valid state tagged search-empty, not an error.
func (o *Orchestrator) fetchSearch(ctx context.Context, req Request) (*Result, error) {
	if cached, total, ok := o.store.SearchResults(ctx, req.Query, req.Filters); ok {
		return o.finish(req, cached, ProvenanceSearchCache, total), nil
	}

	if req.Online {
		resp, err := o.gw.Fetch(ctx, req.gatewayRequest())
		if err == nil {
			if !o.store.PutSearchResults(ctx, req.Query, req.Filters, resp.Articles, resp.TotalResults) {
				o.log.Warn("search write-back failed", zap.String("query", req.Query))
			}
			return o.finish(req, resp.Articles, ProvenanceSearchNetwork, resp.TotalResults), nil
		}
		if appErr := apperrors.FromError(err); appErr.Code == apperrors.ErrAuthInvalid.Code {
			return nil, err
		}
		o.log.Debug("network search missed, falling back",
			zap.String("query", req.Query), zap.Error(err))
	}

	if matched := o.offlineSearch(ctx, req); len(matched) > 0 {
		return o.finish(req, matched, ProvenanceSearchOffline, len(matched)), nil
	}

	return o.finish(req, nil, ProvenanceSearchEmpty, 0), nil
}

// offlineSearch scans offline-saved records for the query terms and category
// filter. Matching is case-insensitive over title and description.
func (o *Orchestrator) offlineSearch(ctx context.Context, req Request) []models.Article {
	needle := strings.ToLower(strings.TrimSpace(req.Query))

	return o.store.QueryByPredicate(ctx, func(a models.Article) bool {
		if !a.SavedOffline {
			return false
		}
		if req.Filters.Category != "" && !a.HasCategory(req.Filters.Category) {
			return false
		}
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Description), needle)
	}, 0, 0)
}

func (o *Orchestrator) finish(req Request, articles []models.Article, provenance Provenance, total int) *Result {
	metrics.FetchResults.WithLabelValues(string(provenance)).Inc()

	return &Result{
		Articles:     articles,
		Provenance:   provenance,
		Page:         req.Page,
		Cached:       provenance != ProvenanceNetwork && provenance != ProvenanceSearchNetwork,
		TotalResults: total,
	}
}

func (r Request) gatewayRequest() gateway.Request {
	return gateway.Request{
		Kind:     r.Kind,
		Category: r.Category,
		Query:    r.Query,
		Filters:  r.Filters,
		Language: r.Language,
		Page:     r.Page,
		PageSize: r.PageSize,
	}
}

func normalise(req Request) Request {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.Kind == "" {
		req.Kind = gateway.KindListing
	}
	if req.Kind == gateway.KindListing && strings.TrimSpace(req.Category) != "" {
		req.Kind = gateway.KindCategory
	}
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Query = strings.TrimSpace(req.Query)
	return req
}
