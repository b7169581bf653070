package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/bloemist/internal/models"
)

const (
	fieldName     = "name"
	fieldIntro    = "intro"
	fieldKeywords = "keywords"
	fieldSlug     = "slug"
)

// BleveIndex implements CategoryIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory to force a full re-import.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemBleveIndex creates an in-memory Bleve index.
func NewMemBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming): Dutch category texts would be
	// mangled by the English stemmer.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldName, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldIntro, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldKeywords, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldSlug, bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("category", docMapping)
	im.DefaultType = "category"
	im.DefaultMapping = docMapping
	return im
}

// Index indexes a category by its ID.
func (b *BleveIndex) Index(ctx context.Context, cat *models.Category) error {
	doc := map[string]interface{}{
		fieldSlug:     cat.Slug,
		fieldName:     strings.ReplaceAll(cat.Name, "-", " "),
		fieldIntro:    cat.Intro,
		fieldKeywords: strings.Join(cat.Keywords, " | "),
	}
	return b.index.Index(cat.ID, doc)
}

// Search runs a disjunction of match queries over name, intro, and keywords and
// returns up to limit results ordered by score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	nameBoost := 1.0
	phraseBoost := 1.0
	fuzziness := 0
	if opts != nil {
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
		if opts.PhraseBoost > 0 {
			phraseBoost = opts.PhraseBoost
		}
		if opts.FuzzyEnabled {
			fuzziness = opts.Fuzziness
			if fuzziness <= 0 {
				fuzziness = 1
			}
		}
	}

	queries := []blevequery.Query{
		b.fieldQuery(query, fieldName, nameBoost, fuzziness),
		b.fieldQuery(query, fieldIntro, 1.0, fuzziness),
		b.fieldQuery(query, fieldKeywords, 1.0, fuzziness),
	}
	if phraseBoost > 1.0 && len(strings.Fields(query)) > 1 {
		pq := bleve.NewMatchPhraseQuery(query)
		pq.SetField(fieldIntro)
		pq.SetBoost(phraseBoost)
		queries = append(queries, pq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (b *BleveIndex) fieldQuery(query, field string, boost float64, fuzziness int) blevequery.Query {
	mq := bleve.NewMatchQuery(query)
	mq.SetField(field)
	if boost != 1.0 {
		mq.SetBoost(boost)
	}
	if fuzziness > 0 {
		mq.SetFuzziness(fuzziness)
	}
	return mq
}

// Delete removes a category from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the number of indexed categories.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
