package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/bloemist/internal/config"
	"github.com/hyperjump/bloemist/internal/models"
	"github.com/hyperjump/bloemist/internal/search"
	"github.com/hyperjump/bloemist/internal/storage"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req models.HighlightRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Debug("highlight request", zap.Int("text_bytes", len(req.Text)), zap.Int("keywords", len(req.Keywords)))
	resp, err := s.engine.Highlight(&req)
	if err != nil {
		s.respondFailure(w, "highlight failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if !s.decode(w, r, &query) {
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondFailure(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit <= 0 || limit > 500 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	ctx := r.Context()
	cats, err := s.storage.ListCategories(ctx, offset, limit)
	if err != nil {
		s.respondFailure(w, "list categories failed", err)
		return
	}
	total, err := s.storage.CountCategories(ctx)
	if err != nil {
		s.respondFailure(w, "count categories failed", err)
		return
	}
	if cats == nil {
		cats = []*models.Category{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
		"total":      total,
		"offset":     offset,
		"limit":      limit,
	})
}

func (s *Server) handleUpsertCategory(w http.ResponseWriter, r *http.Request) {
	var input models.CategoryInput
	if !s.decode(w, r, &input) {
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("upsert category request", zap.String("slug", input.Slug))
	cat, err := s.indexer.IndexCategory(r.Context(), &input, "")
	if err != nil {
		s.respondFailure(w, "indexing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := s.storage.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.respondFailure(w, "get category failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	s.logger.Debug("delete category request", zap.String("slug", slug))
	ctx := r.Context()
	cat, err := s.storage.GetCategoryBySlug(ctx, slug)
	if err != nil {
		s.respondFailure(w, "delete category failed", err)
		return
	}
	if err := s.indexer.DeleteCategory(ctx, cat.ID); err != nil {
		s.respondFailure(w, "delete category failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"slug": slug, "status": "deleted"})
}

func (s *Server) handleIntro(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	resp, err := s.engine.Intro(r.Context(), slug, r.URL.Query().Get("format"))
	if err != nil {
		s.respondFailure(w, "intro failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CountCategories(r.Context())
	if err != nil {
		s.respondFailure(w, "status: count categories failed", err)
		return
	}
	resp := map[string]interface{}{
		"categories":          count,
		"index_size":          s.engine.IndexSize(),
		"cached_highlighters": s.engine.CachedHighlighters(),
		"watch_enabled":       s.watch != nil,
	}
	if s.watch != nil {
		resp["catalog_directories"] = s.watch.Directories()
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"database_path":    s.config.Storage.DatabasePath,
			"bleve_index_path": s.config.Storage.BleveIndexPath,
			"default_format":   s.config.Highlight.Format,
			"default_keywords": s.config.Highlight.DefaultKeywords,
		}
		diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalogDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type directoryAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleCatalogDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog watch not enabled")
		return
	}
	var req directoryAddRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("catalog add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.respondFailure(w, "catalog add directory failed", err)
		return
	}
	s.persistDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleCatalogDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("catalog remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.respondFailure(w, "catalog remove directory failed", err)
		return
	}
	s.persistDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistDirectories saves the watched directories to the config file, if any.
func (s *Server) persistDirectories() {
	if s.configPath == "" || s.config == nil {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	dirs := s.watch.Directories()
	s.config.Catalog.Directories = dirs
	// Only the directory list is written; s.config also carries env overrides.
	if err := config.SaveCatalogDirectories(s.configPath, dirs); err != nil {
		s.logger.Warn("failed to persist catalog directories", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondFailure(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
