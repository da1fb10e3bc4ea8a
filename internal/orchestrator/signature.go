package orchestrator

import (
	"strconv"
	"strings"
)

// Signature canonicalizes a request into the single-flight key:
// kind, page, category, language, query, and the sorted filter pairs.
// Identical parameters always produce identical signatures.
func (r Request) Signature() string {
	parts := []string{
		string(r.Kind),
		"p=" + strconv.Itoa(r.Page),
		"c=" + strings.ToLower(strings.TrimSpace(r.Category)),
		"l=" + strings.ToLower(strings.TrimSpace(r.Language)),
		"q=" + strings.ToLower(strings.TrimSpace(r.Query)),
	}
	parts = append(parts, r.Filters.Pairs()...)
	return strings.Join(parts, "|")
}
