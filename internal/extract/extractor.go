// Package extract reads category definitions from catalog files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/bloemist/internal/models"
)

// Extractor reads categories from catalog files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns the categories it defines.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) Extract(path string) ([]models.CategoryInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes parses content based on the given extension.
// ext should include the leading dot (e.g. ".json").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.CategoryInput, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return extractJSON(validUTF8(content))
	case ".yaml", ".yml":
		return extractYAML(validUTF8(content))
	case ".xlsx":
		return extractExcel(content)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
}

// SupportedExtensions lists the catalog file extensions ExtractBytes understands.
func SupportedExtensions() []string {
	return []string{".json", ".yaml", ".yml", ".xlsx"}
}

// validUTF8 replaces invalid UTF-8 sequences with the replacement character.
func validUTF8(content []byte) []byte {
	if utf8.Valid(content) {
		return content
	}
	return []byte(strings.ToValidUTF8(string(content), "\ufffd"))
}

// splitKeywords splits a spreadsheet keyword cell on ";" or ",".
func splitKeywords(cell string) []string {
	sep := ","
	if strings.Contains(cell, ";") {
		sep = ";"
	}
	var out []string
	for _, kw := range strings.Split(cell, sep) {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
