// Package keyword provides full-text search over category names, intros, and keywords.
package keyword

import (
	"context"

	"github.com/hyperjump/bloemist/internal/models"
)

// SearchOptions optional parameters for category search. Nil means use defaults.
type SearchOptions struct {
	// NameBoost multiplies the score contribution from matches in the category name.
	// Values > 1 make name matches rank higher (e.g. 3.0). Use 1.0 for no boost.
	NameBoost float64
	// PhraseBoost multiplies the score of intros containing the query as a phrase.
	PhraseBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 1 when FuzzyEnabled is true.
	Fuzziness int
}

// CategoryIndex defines category search operations.
type CategoryIndex interface {
	Index(ctx context.Context, cat *models.Category) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of categories in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single search hit.
type Result struct {
	ID    string
	Score float64
}
