package models

import (
	"fmt"
	"strings"
)

// SearchQuery represents a category search request.
type SearchQuery struct {
	Query        string `json:"query"`
	Limit        int    `json:"limit,omitempty"`
	Format       string `json:"format,omitempty"`
	FuzzyEnabled bool   `json:"fuzzy_enabled,omitempty"` // enable fuzzy matching for typo tolerance
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is blank; otherwise normalizes limit.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
