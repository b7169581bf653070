package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	mustWrite(t, db, "12345")
	mustWrite(t, db+"-wal", "67")
	index := filepath.Join(dir, "bleve")
	if err := os.MkdirAll(filepath.Join(index, "store"), 0755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(index, "index_meta.json"), "abc")
	mustWrite(t, filepath.Join(index, "store", "root.bolt"), "d")

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"database with wal", []string{db}, 7},
		{"index directory", []string{index}, 4},
		{"database and index", []string{db, index}, 11},
		{"missing path skipped", []string{filepath.Join(dir, "nope"), index}, 4},
		{"empty path skipped", []string{"", db}, 7},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DiskUsageBytes(%v) = %d, want %d", tt.paths, got, tt.want)
			}
		})
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
