package models

import "strings"

// SearchFilters narrows a search request. Dates use the wire format 2006-01-02.
type SearchFilters struct {
	StartDate string `json:"start_date,omitempty" form:"from"`
	EndDate   string `json:"end_date,omitempty" form:"to"`
	Domain    string `json:"domain,omitempty" form:"domain"`
	Category  string `json:"category,omitempty" form:"category"`
}

// Pairs returns the non-empty filter fields as sorted key=value pairs, the
// canonical form used for search-cache keying.
func (f SearchFilters) Pairs() []string {
	var pairs []string
	add := func(key, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			pairs = append(pairs, key+"="+strings.ToLower(value))
		}
	}
	// Field names are already in sorted order.
	add("category", f.Category)
	add("domain", f.Domain)
	add("end", f.EndDate)
	add("start", f.StartDate)
	return pairs
}

// Empty reports whether no filter field is set.
func (f SearchFilters) Empty() bool {
	return len(f.Pairs()) == 0
}
