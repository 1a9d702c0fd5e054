// Package httpapi exposes the CHV repository over HTTP with chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chvcore/internal/adapters/exports"
	"chvcore/internal/core"
)

const requestTimeout = 30 * time.Second

// Handler wires repository operations to HTTP routes.
type Handler struct {
	svc      *core.Service
	exports  *exports.Worker
	logger   *zap.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Handler.
type Option func(*Handler)

// WithExports enables the asynchronous export archive routes.
func WithExports(w *exports.Worker) Option {
	return func(h *Handler) { h.exports = w }
}

// WithLogger sets the access and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		if g != nil {
			h.gatherer = g
		}
	}
}

// New constructs a handler over svc.
func New(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:      svc,
		logger:   zap.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns a chi router with every route and middleware mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.RequestID)
	api.Use(middleware.Recoverer)
	api.Use(accessLog(h.logger))
	api.Use(middleware.Timeout(requestTimeout))

	api.Get("/healthz", h.handleHealth)
	api.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	api.Post("/sync", h.handleSync)

	api.Route("/workers/{workerID}", func(wr chi.Router) {
		wr.Post("/households", h.handleAddHousehold)
		wr.Get("/households", h.handleListHouseholds)
		wr.Post("/mothers", h.handleAddMother)
		wr.Post("/children", h.handleAddChild)
		wr.Post("/hazards", h.handleReportHazard)
		wr.Post("/disease-cases", h.handleReportDiseaseCase)
		wr.Get("/stats", h.handleStats)
		wr.Get("/export", h.handleExport)
		wr.Post("/exports", h.handleEnqueueExport)
	})

	api.Get("/households/{id}", h.handleGetHousehold)
	api.Patch("/households/{id}", h.handleUpdateHousehold)
	api.Get("/households/{id}/summary", h.handleHouseholdSummary)
	api.Get("/mothers", h.handleListMothers)
	api.Get("/children", h.handleListChildren)
	api.Get("/hazards", h.handleListHazards)
	api.Get("/disease-cases", h.handleListDiseaseCases)
	api.Get("/diseases", h.handleListDiseases)
	api.Get("/diseases/{id}", h.handleGetDisease)
	api.Get("/exports/{id}", h.handleGetExport)

	r.Mount("/", api)
}

// accessLog writes one structured line per request.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
