// Package indexer imports categories into storage and the search index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/bloemist/internal/extract"
	"github.com/hyperjump/bloemist/internal/fileid"
	"github.com/hyperjump/bloemist/internal/keyword"
	"github.com/hyperjump/bloemist/internal/models"
	"github.com/hyperjump/bloemist/internal/storage"
	"go.uber.org/zap"
)

// Indexer writes categories to storage and the category index.
type Indexer struct {
	storage   storage.Storage
	index     keyword.CategoryIndex
	extractor *extract.Extractor
	logger    *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file imported, category deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil, in which case a default extractor is used.
func NewIndexer(
	storage storage.Storage,
	index keyword.CategoryIndex,
	extractor *extract.Extractor,
	opts ...IndexerOption,
) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		storage:   storage,
		index:     index,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

func (idx *Indexer) debug(msg string, fields ...zap.Field) {
	if idx.logger != nil {
		idx.logger.Debug(msg, fields...)
	}
}

// IndexCategory validates input, stores it, and indexes it for search. source is the
// SourceID of the catalog file the category came from, or "" for API-created categories.
// A new category without an ID gets a random UUID; an existing slug keeps its ID.
func (idx *Indexer) IndexCategory(ctx context.Context, input *models.CategoryInput, source string) (*models.Category, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}
	cat := &models.Category{
		ID:       id,
		Slug:     input.Slug,
		Name:     input.Name,
		Intro:    Preprocess(input.Intro),
		Keywords: input.Keywords,
		Source:   source,
	}
	if err := idx.storage.UpsertCategory(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to store category: %w", err)
	}
	if err := idx.index.Index(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to index category: %w", err)
	}
	idx.debug("indexer category indexed", zap.String("id", cat.ID), zap.String("slug", cat.Slug))
	return cat, nil
}

// IndexFile imports every category defined in the catalog file at path, replacing the
// categories previously imported from the same file. If allowedExts is non-empty, the
// file's extension must be in the list (case-insensitive). All categories are validated
// before anything is written, so a malformed file leaves the catalog unchanged.
//
// Categories are upserted first and those no longer in the file are pruned after, so
// re-imported slugs keep their ID and creation time. The steps are not one transaction:
// a storage failure partway leaves earlier categories updated and stale ones in place,
// and the next import of the file converges.
// Returns the number of categories imported.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (int, error) {
	idx.debug("indexer importing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return 0, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	inputs, err := idx.extractor.Extract(absPath)
	if err != nil {
		return 0, fmt.Errorf("extract catalog: %w", err)
	}
	seen := make(map[string]int, len(inputs))
	for i := range inputs {
		if err := inputs[i].Validate(); err != nil {
			return 0, fmt.Errorf("%s: category %d: %w", filepath.Base(absPath), i+1, err)
		}
		if prev, dup := seen[inputs[i].Slug]; dup {
			return 0, fmt.Errorf("%s: categories %d and %d share slug %q", filepath.Base(absPath), prev+1, i+1, inputs[i].Slug)
		}
		seen[inputs[i].Slug] = i
	}

	source := fileid.SourceID(absPath)
	previous, err := idx.storage.ListCategoriesBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("list categories of source: %w", err)
	}
	for i := range inputs {
		if _, err := idx.IndexCategory(ctx, &inputs[i], source); err != nil {
			return i, fmt.Errorf("%s: category %q: %w", filepath.Base(absPath), inputs[i].Slug, err)
		}
	}
	for _, cat := range previous {
		if _, kept := seen[cat.Slug]; kept {
			continue
		}
		if err := idx.DeleteCategory(ctx, cat.ID); err != nil {
			return len(inputs), fmt.Errorf("%s: prune %q: %w", filepath.Base(absPath), cat.Slug, err)
		}
	}
	idx.debug("indexer file imported", zap.String("path", absPath), zap.Int("categories", len(inputs)))
	return len(inputs), nil
}

// IndexDirectory walks dir recursively and imports each regular file whose extension
// is in allowedExts (if non-empty; otherwise every supported catalog format). Returns
// the number of files imported and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	if len(allowedExts) == 0 {
		allowedExts = extract.SupportedExtensions()
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// Resolve symlinks so we only import regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if _, indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			return indexErr
		}
		n++
		return nil
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteCategory removes a category from the index and storage.
func (idx *Indexer) DeleteCategory(ctx context.Context, id string) error {
	idx.debug("indexer deleting category", zap.String("id", id))
	if err := idx.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from index: %w", err)
	}
	if err := idx.storage.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// DeleteSource removes every category imported from the catalog file at path.
// Returns the number of categories removed.
func (idx *Indexer) DeleteSource(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n, err := idx.deleteSource(ctx, fileid.SourceID(absPath))
	if err == nil {
		idx.debug("indexer source removed", zap.String("path", absPath), zap.Int("categories", n))
	}
	return n, err
}

func (idx *Indexer) deleteSource(ctx context.Context, source string) (int, error) {
	// API-created categories have no source and are never removed with a file.
	if !fileid.IsSourceID(source) {
		return 0, fmt.Errorf("invalid catalog source %q", source)
	}
	ids, err := idx.storage.DeleteCategoriesBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete categories of source: %w", err)
	}
	var errs []error
	for _, id := range ids {
		if err := idx.index.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return len(ids), fmt.Errorf("failed to delete from index: %w", errors.Join(errs...))
	}
	return len(ids), nil
}

// SyncIndex re-indexes every stored category. Used at startup when the search index
// was recreated or is missing entries. Returns the number of categories indexed.
func (idx *Indexer) SyncIndex(ctx context.Context) (int, error) {
	const pageSize = 200
	n := 0
	for offset := 0; ; offset += pageSize {
		cats, err := idx.storage.ListCategories(ctx, offset, pageSize)
		if err != nil {
			return n, fmt.Errorf("list categories: %w", err)
		}
		for _, cat := range cats {
			if err := idx.index.Index(ctx, cat); err != nil {
				return n, fmt.Errorf("index category %q: %w", cat.Slug, err)
			}
			n++
		}
		if len(cats) < pageSize {
			return n, nil
		}
	}
}
