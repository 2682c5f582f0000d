// Package web provides the JSON HTTP API: brand lookups, usage
// reporting, health, and metrics.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/djmoore711/brandfetch-mcp/app"
	"github.com/djmoore711/brandfetch-mcp/ports"
)

// LookupService is the application surface the API exposes.
type LookupService interface {
	Handle(ctx context.Context, req app.LookupRequest) (app.Outcome, error)
	Usage(ctx context.Context) (app.UsageReport, error)
	History(ctx context.Context, n int) ([]ports.UsageRecord, error)
}

// Deps contains dependencies for the API handler.
type Deps struct {
	Service LookupService
	Metrics http.Handler // promhttp handler; nil disables the endpoint
	Logger  zerolog.Logger
	Version string
}

// Handler provides the HTTP API endpoints.
type Handler struct {
	service LookupService
	metrics http.Handler
	logger  zerolog.Logger
	version string
}

// NewHandler creates the API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		service: deps.Service,
		metrics: deps.Metrics,
		logger:  deps.Logger.With().Str("component", "http").Logger(),
		version: deps.Version,
	}
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(h.requestID)
	r.Use(h.logRequests)

	r.Get("/healthz", h.Health)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/lookup", h.Lookup)
		r.Get("/usage", h.Usage)
		r.Get("/usage/history", h.UsageHistory)
	})

	return r
}

type ctxKey int

const requestIDKey ctxKey = 0

// requestID assigns each request an ID, honoring one supplied by the
// caller so IDs can be traced across services.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the request ID stored by the middleware, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusWriter records the status code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		h.logger.Info().
			Str("request_id", RequestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
