package search

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/bloemist/internal/config"
	"github.com/hyperjump/bloemist/internal/models"
)

// minTermRunes is the shortest query term highlighted on its own.
const minTermRunes = 2

// ProcessQuery validates the search query and applies configured limits.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	requested := query.Limit
	if err := query.Validate(); err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}
	if requested <= 0 && cfg.DefaultLimit > 0 {
		query.Limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && query.Limit > cfg.MaxLimit {
		query.Limit = cfg.MaxLimit
	}
	return nil
}

// QueryKeywords returns the keywords used to highlight results for query: the whole
// query first, then each term of at least two characters. The longest-first selection
// makes the whole phrase win where it occurs verbatim.
func QueryKeywords(query string) []string {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return nil
	}
	keywords := []string{query}
	for _, term := range strings.Fields(query) {
		term = strings.Trim(term, `"'.,;:!?()`)
		if utf8.RuneCountInString(term) >= minTermRunes {
			keywords = append(keywords, term)
		}
	}
	return models.NormalizeKeywords(keywords)
}
