package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/bloemist/internal/models"
	"github.com/xuri/excelize/v2"
)

// extractExcel reads categories from the first sheet. The first row is a header naming
// the columns slug, name, intro, and keywords (any order, case-insensitive); other
// columns are ignored. Rows without a slug are skipped.
func extractExcel(content []byte) ([]models.CategoryInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["slug"]; !ok {
		return nil, fmt.Errorf("sheet %q has no slug column", sheets[0])
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var cats []models.CategoryInput
	for _, row := range rows[1:] {
		slug := cell(row, "slug")
		if slug == "" {
			continue
		}
		cats = append(cats, models.CategoryInput{
			Slug:     slug,
			Name:     cell(row, "name"),
			Intro:    cell(row, "intro"),
			Keywords: splitKeywords(cell(row, "keywords")),
		})
	}
	return cats, nil
}
