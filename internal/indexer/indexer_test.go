package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/bloemist/internal/extract"
	"github.com/hyperjump/bloemist/internal/keyword"
	"github.com/hyperjump/bloemist/internal/models"
	"github.com/hyperjump/bloemist/internal/storage"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".json", []string{".json", ".yaml"}, true},
		{".JSON", []string{".json"}, true},
		{"yaml", []string{".json", ".yaml"}, true},
		{".pdf", []string{".json"}, false},
		{"", []string{".json"}, false},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func testIndexerWithStorage(t *testing.T) (*Indexer, storage.Storage, keyword.CategoryIndex) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	index, err := keyword.NewMemBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })
	return NewIndexer(store, index, extract.NewExtractor(), WithLogger(zap.NewNop())), store, index
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestIndexCategory(t *testing.T) {
	idx, store, index := testIndexerWithStorage(t)
	ctx := context.Background()

	cat, err := idx.IndexCategory(ctx, &models.CategoryInput{
		Slug:     "Rozen",
		Intro:    "  Verse   rozen\r\nuit Aalsmeer. ",
		Keywords: []string{"verse rozen", "Verse Rozen", " "},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if cat.ID == "" {
		t.Error("ID should be assigned")
	}
	if cat.Slug != "rozen" || cat.Name != "rozen" {
		t.Errorf("slug/name: got %q/%q", cat.Slug, cat.Name)
	}
	if cat.Intro != "Verse rozen\nuit Aalsmeer." {
		t.Errorf("intro: got %q", cat.Intro)
	}
	if len(cat.Keywords) != 1 {
		t.Errorf("keywords: got %q", cat.Keywords)
	}
	if _, err := store.GetCategoryBySlug(ctx, "rozen"); err != nil {
		t.Errorf("stored category: %v", err)
	}
	results, err := index.Search(ctx, "aalsmeer", 10, nil)
	if err != nil || len(results) != 1 || results[0].ID != cat.ID {
		t.Errorf("search results = %+v, %v", results, err)
	}
}

func TestIndexCategory_invalid(t *testing.T) {
	idx, _, _ := testIndexerWithStorage(t)
	if _, err := idx.IndexCategory(context.Background(), &models.CategoryInput{Slug: "bad slug"}, ""); err == nil {
		t.Error("expected validation error")
	}
}

func TestIndexFile_createUpdateAndShrink(t *testing.T) {
	idx, store, _ := testIndexerWithStorage(t)
	ctx := context.Background()
	dir := t.TempDir()

	fPath := filepath.Join(dir, "catalog.json")
	writeFile(t, fPath, `[
		{"slug":"rozen","intro":"Rozen v1"},
		{"slug":"tulpen","intro":"Tulpen v1"}
	]`)
	n, err := idx.IndexFile(ctx, fPath, []string{".json"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d, want 2", n)
	}
	before, err := store.GetCategoryBySlug(ctx, "rozen")
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, fPath, `[{"slug":"rozen","intro":"Rozen v2"}]`)
	if _, err := idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	after, err := store.GetCategoryBySlug(ctx, "rozen")
	if err != nil {
		t.Fatal(err)
	}
	if after.Intro != "Rozen v2" {
		t.Errorf("intro after update: %q", after.Intro)
	}
	if after.ID != before.ID {
		t.Errorf("re-import changed id: %q -> %q", before.ID, after.ID)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("re-import changed created_at: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
	if _, err := store.GetCategoryBySlug(ctx, "tulpen"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("tulpen should be removed with the file entry, err = %v", err)
	}
}

func TestIndexFile_invalidCategoryLeavesCatalogUnchanged(t *testing.T) {
	idx, store, _ := testIndexerWithStorage(t)
	ctx := context.Background()
	fPath := filepath.Join(t.TempDir(), "catalog.json")
	writeFile(t, fPath, `[{"slug":"rozen","intro":"ok"}]`)
	if _, err := idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}

	writeFile(t, fPath, `[{"slug":"rozen","intro":"new"},{"slug":"","intro":"broken"}]`)
	if _, err := idx.IndexFile(ctx, fPath, nil); err == nil {
		t.Fatal("expected error for category without slug")
	}
	cat, err := store.GetCategoryBySlug(ctx, "rozen")
	if err != nil {
		t.Fatal(err)
	}
	if cat.Intro != "ok" {
		t.Errorf("intro changed to %q despite failed import", cat.Intro)
	}
}

func TestIndexFile_duplicateSlug(t *testing.T) {
	idx, _, _ := testIndexerWithStorage(t)
	fPath := filepath.Join(t.TempDir(), "catalog.json")
	writeFile(t, fPath, `[{"slug":"rozen"},{"slug":"ROZEN"}]`)
	if _, err := idx.IndexFile(context.Background(), fPath, nil); err == nil {
		t.Error("expected error for duplicate slug")
	}
}

func TestIndexFile_extensionFiltered(t *testing.T) {
	idx, _, _ := testIndexerWithStorage(t)
	fPath := filepath.Join(t.TempDir(), "catalog.yaml")
	writeFile(t, fPath, "- slug: rozen\n")
	if _, err := idx.IndexFile(context.Background(), fPath, []string{".json"}); err == nil {
		t.Error("expected error for disallowed extension")
	}
}

func TestIndexFile_notRegularFile(t *testing.T) {
	idx, _, _ := testIndexerWithStorage(t)
	if _, err := idx.IndexFile(context.Background(), t.TempDir(), nil); err == nil {
		t.Error("expected error for directory")
	}
}

func TestIndexFile_nonexistent(t *testing.T) {
	idx, _, _ := testIndexerWithStorage(t)
	if _, err := idx.IndexFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIndexFile_excel(t *testing.T) {
	idx, store, _ := testIndexerWithStorage(t)
	fPath := filepath.Join(t.TempDir(), "catalog.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "slug")
	f.SetCellValue("Sheet1", "B1", "intro")
	f.SetCellValue("Sheet1", "A2", "lelies")
	f.SetCellValue("Sheet1", "B2", "Geurige lelies.")
	if err := f.SaveAs(fPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	ctx := context.Background()
	if _, err := idx.IndexFile(ctx, fPath, []string{".xlsx"}); err != nil {
		t.Fatalf("IndexFile: %v", err)
	}
	cat, err := store.GetCategoryBySlug(ctx, "lelies")
	if err != nil {
		t.Fatal(err)
	}
	if cat.Intro != "Geurige lelies." {
		t.Errorf("intro: got %q", cat.Intro)
	}
}

func TestIndexDirectory(t *testing.T) {
	idx, store, _ := testIndexerWithStorage(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "seizoen")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "a.json"), `[{"slug":"rozen"}]`)
	writeFile(t, filepath.Join(sub, "b.yml"), "- slug: tulpen\n")
	writeFile(t, filepath.Join(dir, "readme.txt"), "ignored")

	ctx := context.Background()
	n, err := idx.IndexDirectory(ctx, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("imported %d files, want 2", n)
	}
	if count, _ := store.CountCategories(ctx); count != 2 {
		t.Errorf("categories = %d, want 2", count)
	}
}

func TestIndexDirectory_notDirectory(t *testing.T) {
	idx, _, _ := testIndexerWithStorage(t)
	fPath := filepath.Join(t.TempDir(), "a.json")
	writeFile(t, fPath, "[]")
	if _, err := idx.IndexDirectory(context.Background(), fPath, nil); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestDeleteSourceAndCategory(t *testing.T) {
	idx, store, index := testIndexerWithStorage(t)
	ctx := context.Background()
	fPath := filepath.Join(t.TempDir(), "catalog.json")
	writeFile(t, fPath, `[{"slug":"rozen","intro":"rozen"},{"slug":"tulpen","intro":"tulpen"}]`)
	if _, err := idx.IndexFile(ctx, fPath, nil); err != nil {
		t.Fatal(err)
	}
	manual, err := idx.IndexCategory(ctx, &models.CategoryInput{Slug: "anjers", Intro: "anjers"}, "")
	if err != nil {
		t.Fatal(err)
	}

	n, err := idx.DeleteSource(ctx, fPath)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	if count, _ := index.DocCount(); count != 1 {
		t.Errorf("index doc count = %d, want 1", count)
	}

	if err := idx.DeleteCategory(ctx, manual.ID); err != nil {
		t.Fatal(err)
	}
	if count, _ := store.CountCategories(ctx); count != 0 {
		t.Errorf("categories = %d, want 0", count)
	}
}

func TestSyncIndex(t *testing.T) {
	idx, store, _ := testIndexerWithStorage(t)
	ctx := context.Background()
	for _, slug := range []string{"rozen", "tulpen", "lelies"} {
		if err := store.UpsertCategory(ctx, &models.Category{ID: slug, Slug: slug, Name: slug, Intro: slug}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := idx.SyncIndex(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("synced %d, want 3", n)
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  a  b\t c  ", "a b c"},
		{"regel 1\r\nregel  2\rregel 3", "regel 1\nregel 2\nregel 3"},
		{"alinea 1\n\nalinea 2\n", "alinea 1\n\nalinea 2"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeleteSource_rejectsNonCatalogSource(t *testing.T) {
	idx, store, _ := testIndexerWithStorage(t)
	ctx := context.Background()
	if _, err := idx.IndexCategory(ctx, &models.CategoryInput{Slug: "rozen", Intro: "Rozen."}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.deleteSource(ctx, ""); err == nil {
		t.Error("expected error for empty source")
	}
	if n, _ := store.CountCategories(ctx); n != 1 {
		t.Errorf("categories = %d, want API category kept", n)
	}
}
