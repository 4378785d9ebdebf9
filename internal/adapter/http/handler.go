package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adwatch/internal/core/port"
)

// Handler is the inbound HTTP adapter. It exposes CRUD for policies,
// assignments and tokens, the synchronous and asynchronous check triggers,
// and the poll endpoint backing UI progress bars.
type Handler struct {
	policies    port.PolicyRepository
	assignments port.AssignmentRepository
	tokens      port.TokenRepository
	reports     port.ReportSink
	clients     port.ClientFactory
	checker     port.CheckUseCase
	jobs        port.JobTracker
	logger      *slog.Logger
	router      chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(
	policies port.PolicyRepository,
	assignments port.AssignmentRepository,
	tokens port.TokenRepository,
	reports port.ReportSink,
	clients port.ClientFactory,
	checker port.CheckUseCase,
	jobs port.JobTracker,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		policies:    policies,
		assignments: assignments,
		tokens:      tokens,
		reports:     reports,
		clients:     clients,
		checker:     checker,
		jobs:        jobs,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "X-Owner-ID"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/policies", func(r chi.Router) {
			r.Post("/", h.handlePolicyCreate)
			r.Get("/", h.handlePolicyList)
			r.Get("/{id}", h.handlePolicyGet)
			r.Put("/{id}", h.handlePolicyUpdate)
			r.Delete("/{id}", h.handlePolicyDelete)
		})
		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.handleAssignmentCreate)
			r.Get("/", h.handleAssignmentList)
			r.Patch("/{id}/active", h.handleAssignmentSetActive)
			r.Delete("/{id}", h.handleAssignmentDelete)
		})
		r.Route("/tokens", func(r chi.Router) {
			r.Post("/", h.handleTokenCreate)
			r.Get("/", h.handleTokenList)
			r.Delete("/{id}", h.handleTokenDelete)
		})
		r.Route("/checks", func(r chi.Router) {
			r.Post("/run", h.handleCheckRun)
			r.Post("/", h.handleCheckStart)
			r.Get("/{jobID}", h.handleCheckStatus)
			r.Delete("/{jobID}", h.handleCheckCancel)
		})
		r.Get("/reports", h.handleReportList)
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
