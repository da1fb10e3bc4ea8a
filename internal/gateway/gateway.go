// Package gateway issues listing and search requests against the remote
// content API and normalises results and errors. Credential rejection is
// terminal; every other failure is transient and feeds the fallback chain.
package gateway

import (
	"errors"
	"strings"

	"github.com/avandyck/newsdock/internal/models"
)

// Request kinds.
type Kind string

const (
	KindListing  Kind = "listing"
	KindCategory Kind = "category"
	KindSearch   Kind = "search"
)

// ErrTransient marks upstream failures the fetch pipeline absorbs into its
// fallback chain. Callers match with errors.Is.
var ErrTransient = errors.New("transient upstream error")

// Request describes one remote fetch.
type Request struct {
	Kind     Kind
	Category string
	Query    string
	Filters  models.SearchFilters
	Language string
	Page     int
	PageSize int
}

// Response is a normalised remote result.
type Response struct {
	Articles     []models.Article
	TotalResults int
	HasMore      bool
}

// Source derives the page-cache source key for a request: the plain listing
// shares one key space, each category gets its own.
func (r Request) Source() string {
	if r.Kind == KindCategory && strings.TrimSpace(r.Category) != "" {
		return "category:" + strings.ToLower(strings.TrimSpace(r.Category))
	}
	return "listing"
}
