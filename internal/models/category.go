// Package models defines core data structures for categories, highlight requests, and search results.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Category is a storefront product category with the intro text shown on its page.
type Category struct {
	ID        string    `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Name      string    `json:"name" db:"name"`
	Intro     string    `json:"intro" db:"intro"`
	Keywords  []string  `json:"keywords" db:"keywords"`
	Source    string    `json:"source,omitempty" db:"source"` // catalog file the category was imported from
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryInput is the input for creating or updating a category.
type CategoryInput struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Slug     string   `json:"slug" yaml:"slug"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Intro    string   `json:"intro" yaml:"intro"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate normalizes the input in place: the slug is trimmed and lowercased, the name
// defaults to the slug, and keywords are trimmed with blanks and case-insensitive
// duplicates dropped (first occurrence kept). Returns an error for a missing or
// malformed slug.
func (in *CategoryInput) Validate() error {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if in.Slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if !slugPattern.MatchString(in.Slug) {
		return fmt.Errorf("invalid slug %q: use lowercase letters, digits and single dashes", in.Slug)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		in.Name = in.Slug
	}
	in.Keywords = NormalizeKeywords(in.Keywords)
	return nil
}

// NormalizeKeywords trims keywords and drops blanks and case-insensitive duplicates,
// keeping declaration order.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}
