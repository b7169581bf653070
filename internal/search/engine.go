// Package search answers intro, highlight, and category search requests.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/bloemist/internal/config"
	"github.com/hyperjump/bloemist/internal/highlight"
	"github.com/hyperjump/bloemist/internal/keyword"
	"github.com/hyperjump/bloemist/internal/models"
	"github.com/hyperjump/bloemist/internal/render"
	"github.com/hyperjump/bloemist/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidRequest is returned for malformed queries, formats, or highlight requests.
var ErrInvalidRequest = errors.New("invalid request")

const (
	defaultCacheSize   = 256
	defaultPhraseBoost = 2.0
)

// Engine highlights category intros and runs category search.
type Engine struct {
	storage      storage.Storage
	index        keyword.CategoryIndex
	searchConfig *config.SearchConfig
	hlConfig     *config.HighlightConfig
	highlighters *HighlighterCache
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithCacheSize sets how many compiled keyword lists are kept.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) { e.highlighters = NewHighlighterCache(n) }
}

// NewEngine creates an engine with the given dependencies. Nil configs use defaults.
func NewEngine(
	storage storage.Storage,
	index keyword.CategoryIndex,
	searchCfg *config.SearchConfig,
	hlCfg *config.HighlightConfig,
	opts ...EngineOption,
) *Engine {
	if searchCfg == nil {
		searchCfg = &config.SearchConfig{}
	}
	if hlCfg == nil {
		hlCfg = &config.HighlightConfig{}
	}
	e := &Engine{
		storage:      storage,
		index:        index,
		searchConfig: searchCfg,
		hlConfig:     hlCfg,
		highlighters: NewHighlighterCache(defaultCacheSize),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// format resolves a requested format name, falling back to the configured default.
func (e *Engine) format(name string) (render.Format, error) {
	if name == "" {
		name = e.hlConfig.Format
	}
	f, err := render.ParseFormat(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return f, nil
}

// Highlight emphasizes req.Keywords in req.Text and renders the result.
// Keywords are used as given; blank ones match nothing.
func (e *Engine) Highlight(req *models.HighlightRequest) (*models.HighlightResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty highlight request", ErrInvalidRequest)
	}
	format, err := e.format(req.Format)
	if err != nil {
		return nil, err
	}
	segments := e.highlighters.Get(req.Keywords).Highlight(req.Text)
	rendered, err := render.Render(segments, format)
	if err != nil {
		return nil, err
	}
	return &models.HighlightResponse{
		Segments:        nonNil(segments),
		Rendered:        rendered,
		Format:          string(format),
		EmphasizedCount: len(highlight.Emphasized(segments)),
	}, nil
}

// Intro returns the category with its intro highlighted by its own keywords and the
// configured default keywords. Returns an error wrapping storage.ErrNotFound for an
// unknown slug.
func (e *Engine) Intro(ctx context.Context, slug, formatName string) (*models.IntroResponse, error) {
	format, err := e.format(formatName)
	if err != nil {
		return nil, err
	}
	cat, err := e.storage.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	keywords := IntroKeywords(cat, e.hlConfig.DefaultKeywords)
	segments := e.highlighters.Get(keywords).Highlight(cat.Intro)
	rendered, err := render.Render(segments, format)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("intro highlighted",
		zap.String("slug", cat.Slug),
		zap.Int("keywords", len(keywords)),
		zap.Int("emphasized", len(highlight.Emphasized(segments))))
	return &models.IntroResponse{
		Category: cat,
		Keywords: keywords,
		Segments: nonNil(segments),
		Rendered: rendered,
		Format:   string(format),
	}, nil
}

// Search finds categories matching query and highlights the query terms in each intro.
// When an exact search finds nothing, it is retried once with fuzzy matching.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.searchConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	format, err := e.format(query.Format)
	if err != nil {
		return nil, err
	}

	opts := &keyword.SearchOptions{
		NameBoost:    e.searchConfig.NameBoost,
		PhraseBoost:  defaultPhraseBoost,
		FuzzyEnabled: query.FuzzyEnabled,
	}
	hits, err := e.index.Search(ctx, query.Query, query.Limit, opts)
	if err != nil {
		return nil, fmt.Errorf("category search failed: %w", err)
	}
	autoFuzzy := false
	if len(hits) == 0 && !query.FuzzyEnabled {
		opts.FuzzyEnabled = true
		hits, err = e.index.Search(ctx, query.Query, query.Limit, opts)
		if err != nil {
			return nil, fmt.Errorf("fuzzy category search failed: %w", err)
		}
		autoFuzzy = len(hits) > 0
	}

	scores := NormalizeScores(hits)
	h := e.highlighters.Get(QueryKeywords(query.Query))
	response := &models.SearchResponse{
		Results:   make([]*models.SearchResult, 0, len(hits)),
		Query:     query.Query,
		AutoFuzzy: autoFuzzy,
	}
	for _, hit := range hits {
		cat, err := e.storage.GetCategory(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				e.logger.Debug("search hit missing from storage", zap.String("id", hit.ID))
				continue
			}
			return nil, fmt.Errorf("load category: %w", err)
		}
		segments := h.Highlight(cat.Intro)
		rendered, err := render.Render(segments, format)
		if err != nil {
			return nil, err
		}
		response.Results = append(response.Results, &models.SearchResult{
			Category: cat,
			Score:    scores[hit.ID],
			Segments: nonNil(segments),
			Rendered: rendered,
			Rank:     len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

// IndexSize returns the number of categories in the search index.
func (e *Engine) IndexSize() uint64 {
	n, err := e.index.DocCount()
	if err != nil {
		return 0
	}
	return n
}

// CachedHighlighters returns the number of compiled keyword lists held in memory.
func (e *Engine) CachedHighlighters() int {
	return e.highlighters.Len()
}

// nonNil keeps empty intros encoding as [] rather than null.
func nonNil(segments []highlight.Segment) []highlight.Segment {
	if segments == nil {
		return []highlight.Segment{}
	}
	return segments
}
