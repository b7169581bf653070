package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bloemist/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		intro TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_categories_source ON categories(source);
	CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name);
	`
	_, err := db.Exec(schema)
	return err
}

const categoryColumns = `id, slug, name, intro, keywords, source, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var cat models.Category
	var keywordsJSON string
	if err := row.Scan(&cat.ID, &cat.Slug, &cat.Name, &cat.Intro, &keywordsJSON, &cat.Source, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
		return nil, err
	}
	if keywordsJSON != "" {
		if err := json.Unmarshal([]byte(keywordsJSON), &cat.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
		}
	}
	return &cat, nil
}

// UpsertCategory inserts or updates a category. An existing row with the same slug
// keeps its ID and creation time.
func (s *SQLiteStorage) UpsertCategory(ctx context.Context, cat *models.Category) error {
	keywords := cat.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existingID string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM categories WHERE slug = ?`, cat.Slug).Scan(&existingID, &createdAt)
	switch {
	case err == nil:
		cat.ID = existingID
		cat.CreatedAt = createdAt
	case errors.Is(err, sql.ErrNoRows):
		if cat.ID == "" {
			return fmt.Errorf("category %q has no id", cat.Slug)
		}
		if cat.CreatedAt.IsZero() {
			cat.CreatedAt = time.Now()
		}
	default:
		return fmt.Errorf("failed to look up slug: %w", err)
	}
	cat.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			intro = excluded.intro,
			keywords = excluded.keywords,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		cat.ID, cat.Slug, cat.Name, cat.Intro, string(keywordsJSON), cat.Source, cat.CreatedAt, cat.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return tx.Commit()
}

// GetCategory returns a category by ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	cat, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cat, err
}

// GetCategoryBySlug returns a category by slug.
func (s *SQLiteStorage) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	cat, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return cat, err
}

// DeleteCategory removes a category by ID. Deleting a missing category is not an error.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// DeleteCategoriesBySource removes all categories imported from source.
func (s *SQLiteStorage) DeleteCategoriesBySource(ctx context.Context, source string) ([]string, error) {
	if source == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM categories WHERE source = ?`, source)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE source = ?`, source); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListCategories returns categories ordered by name with offset and limit.
func (s *SQLiteStorage) ListCategories(ctx context.Context, offset, limit int) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY name, slug LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

// ListCategoriesBySource returns the categories imported from source, ordered by slug.
func (s *SQLiteStorage) ListCategoriesBySource(ctx context.Context, source string) ([]*models.Category, error) {
	if source == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE source = ? ORDER BY slug`, source)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]*models.Category, error) {
	defer rows.Close()
	var cats []*models.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

// CountCategories returns the number of stored categories.
func (s *SQLiteStorage) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
