// Package server provides the HTTP API for bloemist.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/bloemist/internal/config"
	"github.com/hyperjump/bloemist/internal/indexer"
	"github.com/hyperjump/bloemist/internal/search"
	"github.com/hyperjump/bloemist/internal/storage"
	"go.uber.org/zap"
)

// WatchService manages the watched catalog directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the bloemist API.
type Server struct {
	engine     *search.Engine
	indexer    *indexer.Indexer
	storage    storage.Storage
	config     *config.Config
	configPath string // when set, watched directory changes are saved here
	configMu   sync.Mutex
	watch      WatchService
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil when
// catalog watching is disabled.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	storage storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	watch WatchService,
	configPath string,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:     engine,
		indexer:    idx,
		storage:    storage,
		config:     cfg,
		configPath: configPath,
		watch:      watch,
		logger:     logger,
	}
}

// Routes returns the API router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/highlight", s.handleHighlight)
		r.Post("/search", s.handleSearch)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleUpsertCategory)
			r.Get("/{slug}", s.handleGetCategory)
			r.Delete("/{slug}", s.handleDeleteCategory)
			r.Get("/{slug}/intro", s.handleIntro)
		})

		r.Route("/catalog/directories", func(r chi.Router) {
			r.Get("/", s.handleCatalogDirectoriesList)
			r.Post("/", s.handleCatalogDirectoriesAdd)
			r.Delete("/", s.handleCatalogDirectoriesRemove)
		})
	})
	return r
}

// requestLogger logs each request at debug level through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
