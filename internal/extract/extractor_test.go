package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_jsonArray(t *testing.T) {
	e := NewExtractor()
	content := []byte(`[{"slug":"rozen","name":"Rozen","intro":"Verse rozen.","keywords":["verse rozen"]}]`)
	got, err := e.ExtractBytes(content, ".json")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "rozen" || got[0].Intro != "Verse rozen." {
		t.Errorf("got %+v", got)
	}
	if !reflect.DeepEqual(got[0].Keywords, []string{"verse rozen"}) {
		t.Errorf("keywords: got %q", got[0].Keywords)
	}
}

func TestExtractBytes_jsonObject(t *testing.T) {
	e := NewExtractor()
	content := []byte(`{"categories":[{"slug":"tulpen","intro":"Tulpen."},{"slug":"lelies","intro":"Lelies."}]}`)
	got, err := e.ExtractBytes(content, ".JSON")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got) != 2 || got[1].Slug != "lelies" {
		t.Errorf("got %+v", got)
	}
}

func TestExtractBytes_jsonInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte(`{"categories":`), ".json"); err == nil {
		t.Error("expected parse error")
	}
}

func TestExtractBytes_emptyJSON(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("  \n"), ".json")
	if err != nil || got != nil {
		t.Errorf("got %+v, %v; want nil, nil", got, err)
	}
}

func TestExtractBytes_yaml(t *testing.T) {
	e := NewExtractor()
	content := []byte(`
categories:
  - slug: pioenrozen
    name: Pioenrozen
    intro: Weelderige pioenrozen in het voorjaar.
    keywords: [pioenrozen, voorjaar]
`)
	got, err := e.ExtractBytes(content, ".yaml")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Pioenrozen" || len(got[0].Keywords) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestExtractBytes_yamlSequence(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("- slug: a\n  intro: x\n- slug: b\n  intro: y\n"), ".yml")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got) != 2 || got[0].Slug != "a" || got[1].Intro != "y" {
		t.Errorf("got %+v", got)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Slug")
	f.SetCellValue("Sheet1", "B1", "Intro")
	f.SetCellValue("Sheet1", "C1", "Keywords")
	f.SetCellValue("Sheet1", "D1", "Notes")
	f.SetCellValue("Sheet1", "A2", "rozen")
	f.SetCellValue("Sheet1", "B2", "Verse rozen, dagelijks bezorgd.")
	f.SetCellValue("Sheet1", "C2", "verse rozen; bezorgd")
	f.SetCellValue("Sheet1", "A4", "tulpen")
	f.SetCellValue("Sheet1", "B4", "Tulpen.")
	f.SetCellValue("Sheet1", "C4", "tulpen, voorjaar")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2 (blank row skipped): %+v", len(got), got)
	}
	if got[0].Slug != "rozen" || got[0].Intro != "Verse rozen, dagelijks bezorgd." {
		t.Errorf("row 1: got %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Keywords, []string{"verse rozen", "bezorgd"}) {
		t.Errorf("row 1 keywords: got %q", got[0].Keywords)
	}
	if !reflect.DeepEqual(got[1].Keywords, []string{"tulpen", "voorjaar"}) {
		t.Errorf("row 2 keywords: got %q", got[1].Keywords)
	}
}

func TestExtractBytes_excelWithoutSlugColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Name")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if _, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx"); err == nil {
		t.Error("expected error for missing slug column")
	}
}

func TestExtractBytes_unsupported(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("x"), ".pdf"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, []byte(`[{"slug":"anjers","intro":"Anjers."}]`), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "anjers" {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_missingFile(t *testing.T) {
	if _, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a, b ,c", []string{"a", "b", "c"}},
		{"rozen, wit; tulpen", []string{"rozen, wit", "tulpen"}},
		{" ; ", nil},
	}
	for _, tt := range tests {
		if got := splitKeywords(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitKeywords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
