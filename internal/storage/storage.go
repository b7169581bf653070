// Package storage defines the persistence interface for categories.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/bloemist/internal/models"
)

// ErrNotFound is returned when a category does not exist.
var ErrNotFound = errors.New("category not found")

// Storage defines category persistence operations.
type Storage interface {
	// UpsertCategory inserts cat or updates the category with the same slug (or ID).
	// On return cat.ID, cat.CreatedAt and cat.UpdatedAt reflect the stored row.
	UpsertCategory(ctx context.Context, cat *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	// DeleteCategoriesBySource removes every category imported from source and
	// returns their IDs.
	DeleteCategoriesBySource(ctx context.Context, source string) ([]string, error)
	ListCategoriesBySource(ctx context.Context, source string) ([]*models.Category, error)
	ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error)

	// Stats
	CountCategories(ctx context.Context) (int64, error)

	Close() error
}
