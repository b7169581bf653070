package search

import "github.com/hyperjump/bloemist/internal/models"

// IntroKeywords returns the keywords highlighted in a category intro: the category's
// own keywords followed by the configured defaults, case-insensitive duplicates removed.
// Category keywords come first so they win equal-length ties.
func IntroKeywords(cat *models.Category, defaults []string) []string {
	all := make([]string, 0, len(cat.Keywords)+len(defaults))
	all = append(all, cat.Keywords...)
	all = append(all, defaults...)
	return models.NormalizeKeywords(all)
}
