package models

import "github.com/hyperjump/bloemist/internal/highlight"

// HighlightRequest asks for ad hoc highlighting of text.
type HighlightRequest struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
	Format   string   `json:"format,omitempty"`
}

// HighlightResponse carries highlighted segments and their rendering.
type HighlightResponse struct {
	Segments        []highlight.Segment `json:"segments"`
	Rendered        string              `json:"rendered"`
	Format          string              `json:"format"`
	EmphasizedCount int                 `json:"emphasized_count"`
}

// IntroResponse is a category with its highlighted intro text.
type IntroResponse struct {
	Category *Category           `json:"category"`
	Keywords []string            `json:"keywords"`
	Segments []highlight.Segment `json:"segments"`
	Rendered string              `json:"rendered"`
	Format   string              `json:"format"`
}
