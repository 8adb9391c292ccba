// Package chi is the HTTP transport: routing, auth, request decoding, and
// the mapping from domain sentinel errors to status codes.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
	logpkg "github.com/shoplane/shoplane/internal/logger"
	"github.com/shoplane/shoplane/internal/metrics"
	indexinguc "github.com/shoplane/shoplane/internal/usecase/indexing"
	searchuc "github.com/shoplane/shoplane/internal/usecase/search"
)

// SearchService runs the search pipeline.
type SearchService interface {
	Search(ctx context.Context, rawQuery string, limit int) (*searchuc.Response, error)
}

// IndexService maintains the product indexes.
type IndexService interface {
	IndexProduct(ctx context.Context, item *domain.CatalogItem) error
	BulkIndex(ctx context.Context, items []domain.CatalogItem) (int, error)
	StartBulkIndex(ctx context.Context, items []domain.CatalogItem) (*indexinguc.Job, error)
	Job(ctx context.Context, id string) (*indexinguc.Job, error)
	ClearIndex(ctx context.Context) (int, error)
	SaveSnapshot(ctx context.Context) error
	Stats(ctx context.Context) (indexinguc.Stats, error)
}

// Pinger checks storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds transport limits.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	MaxBulkItems int
}

// DefaultConfig returns the transport limits used when none are configured.
func DefaultConfig() Config {
	return Config{DefaultLimit: 20, MaxLimit: 60, MaxBulkItems: 10000}
}

// Server is the HTTP API server.
type Server struct {
	search        SearchService
	index         IndexService
	pinger        Pinger
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, index IndexService, pinger Pinger, cfg Config, logger *zap.Logger) *Server {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}
	if cfg.MaxBulkItems <= 0 {
		cfg.MaxBulkItems = DefaultConfig().MaxBulkItems
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		index:  index,
		pinger: pinger,
		cfg:    cfg,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidItem, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, CodeRetrievalUnavailable),
	}
	return s
}

// Router assembles the chi router with middleware and all routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Route("/index", func(r chi.Router) {
			r.Post("/products", s.handleIndexProduct)
			r.Post("/bulk", s.handleBulkIndex)
			r.Get("/jobs/{id}", s.handleJob)
			r.Delete("/", s.handleClearIndex)
			r.Post("/snapshot", s.handleSnapshot)
			r.Get("/stats", s.handleStats)
		})
	})
	return r
}

// handleHealth reports storage liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch runs GET /api/v1/search?q=...&limit=N.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := s.cfg.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	start := time.Now()
	resp, err := s.search.Search(r.Context(), q, limit)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	metrics.ObserveSearch(resp.IsFallback, time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, resp)
}

// handleIndexProduct runs POST /api/v1/index/products.
func (s *Server) handleIndexProduct(w http.ResponseWriter, r *http.Request) {
	var item domain.CatalogItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.index.IndexProduct(r.Context(), &item); err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": item.ID, "status": "indexed"})
}

type bulkIndexRequest struct {
	Products []domain.CatalogItem `json:"products"`
}

// handleBulkIndex runs POST /api/v1/index/bulk. With ?async=true the load
// runs in the background and the response carries a pollable job.
func (s *Server) handleBulkIndex(w http.ResponseWriter, r *http.Request) {
	var req bulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "products is required")
		return
	}
	if len(req.Products) > s.cfg.MaxBulkItems {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			"bulk request exceeds "+strconv.Itoa(s.cfg.MaxBulkItems)+" items")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		job, err := s.index.StartBulkIndex(r.Context(), req.Products)
		if err != nil {
			s.handleDomainError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
		return
	}

	indexed, err := s.index.BulkIndex(r.Context(), req.Products)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": indexed})
}

// handleJob runs GET /api/v1/index/jobs/{id}.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.index.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleClearIndex runs DELETE /api/v1/index.
func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.index.ClearIndex(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// handleSnapshot runs POST /api/v1/index/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.index.SaveSnapshot(r.Context()); err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleStats runs GET /api/v1/index/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.index.Stats(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	metrics.IndexedProducts.Set(float64(stats.Vector.TotalDocuments))
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logpkg.FromContext(ctx).Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
