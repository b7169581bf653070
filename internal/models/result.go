package models

import "github.com/hyperjump/bloemist/internal/highlight"

// SearchResult is a single category hit with its intro highlighted for the query.
type SearchResult struct {
	Category *Category           `json:"category"`
	Score    float64             `json:"score"`
	Segments []highlight.Segment `json:"segments"`
	Rendered string              `json:"rendered"`
	Rank     int                 `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// AutoFuzzy indicates that fuzzy search was enabled automatically because the
	// exact search returned no results.
	AutoFuzzy bool `json:"auto_fuzzy,omitempty"`
}
