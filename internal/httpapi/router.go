package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/filesvc/internal/filesvc"
	"github.com/dmitrymomot/filesvc/pkg/file"
	"github.com/dmitrymomot/filesvc/pkg/logger"
)

// multipartOverhead is the slack allowed on top of the max file size for
// multipart boundaries and form fields.
const multipartOverhead = 1 << 20

// BlobOpener serves objects behind locally presigned links.
type BlobOpener interface {
	Open(ctx context.Context, namespace, key, token string) (*file.Blob, error)
}

// HealthCheck reports whether one dependency is ready.
type HealthCheck func(ctx context.Context) error

// Config wires the router.
type Config struct {
	Files    *filesvc.Service
	Verifier TokenVerifier
	// Blobs is set when objects are stored locally; it enables /v1/blobs.
	Blobs   BlobOpener
	Metrics *Metrics
	Logger  *slog.Logger
	// Checks run on /health/ready, keyed by dependency name.
	Checks map[string]HealthCheck
}

type handler struct {
	files    *filesvc.Service
	verifier TokenVerifier
	blobs    BlobOpener
	metrics  *Metrics
	log      *slog.Logger
	checks   map[string]HealthCheck
}

// NewRouter builds the HTTP API.
func NewRouter(cfg Config) http.Handler {
	h := &handler{
		files:    cfg.Files,
		verifier: cfg.Verifier,
		blobs:    cfg.Blobs,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
		checks:   cfg.Checks,
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}
	if h.log == nil {
		h.log = logger.Discard()
	}

	r := chi.NewRouter()
	r.Use(RequestID, h.recoverer, h.accessLog, h.metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Get("/health/live", h.live)
	r.Get("/health/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	if h.blobs != nil {
		r.Get(file.BlobRoutePrefix+"{namespace}/*", h.blob)
	}

	r.Route("/v1/files", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/", h.upload)
		r.Get("/", h.list)
		r.Post("/validate", h.validate)
		r.Get("/usage", h.usage)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/presign-download", h.presign)
	})

	return r
}
