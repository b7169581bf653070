package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/bloemist/internal/models"
)

func testCategories() []*models.Category {
	return []*models.Category{
		{
			ID:       "rozen",
			Slug:     "rozen",
			Name:     "Rozen",
			Intro:    "Verse rozen uit Aalsmeer, dagelijks handgebonden.",
			Keywords: []string{"verse rozen", "handgebonden"},
		},
		{
			ID:       "tulpen",
			Slug:     "tulpen",
			Name:     "Tulpen",
			Intro:    "Kleurrijke tulpen voor elk seizoen. Ook met rozen gecombineerd.",
			Keywords: []string{"tulpen"},
		},
		{
			ID:       "planten",
			Slug:     "planten",
			Name:     "Kamerplanten",
			Intro:    "Groene vrienden voor binnen.",
			Keywords: []string{"monstera", "luchtzuiverend"},
		},
	}
}

func newIndexedMem(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewMemBleveIndex()
	if err != nil {
		t.Fatalf("NewMemBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	ctx := context.Background()
	for _, c := range testCategories() {
		if err := idx.Index(ctx, c); err != nil {
			t.Fatalf("Index %s: %v", c.ID, err)
		}
	}
	return idx
}

func TestBleveIndex_SearchFindsIntro(t *testing.T) {
	idx := newIndexedMem(t)
	results, err := idx.Search(context.Background(), "Aalsmeer", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "rozen" {
		t.Fatalf("results = %+v, want only rozen", results)
	}
}

func TestBleveIndex_SearchFindsKeywords(t *testing.T) {
	idx := newIndexedMem(t)
	results, err := idx.Search(context.Background(), "monstera", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "planten" {
		t.Fatalf("results = %+v, want only planten", results)
	}
}

func TestBleveIndex_NameBoostRanksNameMatchFirst(t *testing.T) {
	idx := newIndexedMem(t)
	results, err := idx.Search(context.Background(), "rozen", 10, &SearchOptions{NameBoost: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) < 2 {
		t.Fatalf("expected rozen and tulpen, got %+v", results)
	}
	if results[0].ID != "rozen" {
		t.Errorf("first result = %q, want rozen", results[0].ID)
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newIndexedMem(t)
	ctx := context.Background()
	exact, err := idx.Search(ctx, "tulpne", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(exact) != 0 {
		t.Errorf("exact search for typo should find nothing, got %+v", exact)
	}
	fuzzy, err := idx.Search(ctx, "tulpne", 10, &SearchOptions{FuzzyEnabled: true, Fuzziness: 2})
	if err != nil {
		t.Fatalf("Search fuzzy: %v", err)
	}
	if len(fuzzy) == 0 || fuzzy[0].ID != "tulpen" {
		t.Errorf("fuzzy results = %+v, want tulpen first", fuzzy)
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	idx := newIndexedMem(t)
	ctx := context.Background()
	if err := idx.Delete(ctx, "planten"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, err := idx.Search(ctx, "monstera", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("after delete got %+v", results)
	}
	n, err := idx.DocCount()
	if err != nil || n != 2 {
		t.Errorf("DocCount = %d, %v; want 2", n, err)
	}
}

func TestBleveIndex_ReopenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	ctx := context.Background()

	idx1, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx1.Index(ctx, testCategories()[0]); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx2, err := NewBleveIndex(path)
	if err != nil {
		t.Fatalf("NewBleveIndex (reopen): %v", err)
	}
	defer func() { _ = idx2.Close() }()
	results, err := idx2.Search(ctx, "handgebonden", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("reopened index: got %d results, want 1", len(results))
	}
}
