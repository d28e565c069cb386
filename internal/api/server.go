// Package api provides the HTTP server for the logbook daemon.
// It exposes a REST API over the cadence/period lifecycle plus a
// Server-Sent Events feed of record changes.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cadencelog/cadence/internal/app/logbook"
	"github.com/cadencelog/cadence/internal/domain"
	"github.com/cadencelog/cadence/internal/infra/changefeed"
)

// Server is the logbook HTTP API server.
type Server struct {
	store          domain.Store
	lifecycle      *logbook.Lifecycle
	agg            *logbook.Aggregator
	feed           *changefeed.Hub
	metricsEnabled bool
}

// NewServer creates a new API server. feed may be nil; the events endpoint
// is only mounted when it is set.
func NewServer(store domain.Store, lifecycle *logbook.Lifecycle, agg *logbook.Aggregator, feed *changefeed.Hub) *Server {
	return &Server{store: store, lifecycle: lifecycle, agg: agg, feed: feed}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cadences", func(r chi.Router) {
			r.Get("/", s.handleListCadences)
			r.Post("/", s.handleCreateCadence)
			r.Get("/suggest-number", s.handleSuggestNumber)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCadence)
				r.Put("/", s.handleUpdateCadence)
				r.Delete("/", s.handleDeleteCadence)
				r.Post("/close", s.handleCloseCadence)

				r.Get("/periods", s.handleListPeriods)
				r.Get("/current-period", s.handleCurrentPeriod)
				r.Post("/rollover", s.handleRollover)

				// Scoped creation: the record lands in the open period.
				r.Post("/routes", s.handleAddRouteScoped)
				r.Post("/refuelings", s.handleAddRefuelingScoped)
				r.Post("/expenses", s.handleAddExpenseScoped)
				r.Post("/couplings", s.handleAddCouplingScoped)
			})
		})

		r.Route("/periods/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetPeriod)
			r.Put("/", s.handleUpdatePeriod)
			r.Delete("/", s.handleDeletePeriod)
			r.Get("/summary", s.handlePeriodSummary)

			// Listing and explicit-period creation (back-fill path).
			r.Get("/routes", s.handleListRoutes)
			r.Post("/routes", s.handleAddRoute)
			r.Get("/refuelings", s.handleListRefuelings)
			r.Post("/refuelings", s.handleAddRefueling)
			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleAddExpense)
			r.Get("/couplings", s.handleListCouplings)
			r.Post("/couplings", s.handleAddCoupling)
		})

		r.Route("/routes/{id}", func(r chi.Router) {
			r.Put("/", s.handleUpdateRoute)
			r.Delete("/", s.handleDeleteRoute)
			r.Post("/complete", s.handleCompleteRoute)
		})

		r.Route("/refuelings/{id}", func(r chi.Router) {
			r.Put("/", s.handleUpdateRefueling)
			r.Delete("/", s.handleDeleteRefueling)
		})

		r.Route("/expenses/{id}", func(r chi.Router) {
			r.Put("/", s.handleUpdateExpense)
			r.Delete("/", s.handleDeleteExpense)
		})

		r.Route("/couplings/{id}", func(r chi.Router) {
			r.Put("/", s.handleUpdateCoupling)
			r.Delete("/", s.handleDeleteCoupling)
			r.Post("/close", s.handleCloseCoupling)
		})

		r.Post("/actions", s.handleDispatch)

		if s.feed != nil {
			r.Get("/events", s.handleEvents)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// pathID parses the {id} URL parameter. A malformed id writes a 400 and
// returns ok=false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// decode unmarshals the request body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes: missing records are
// 404, lifecycle conflicts are 409, rejected input is 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCadenceNotFound),
		errors.Is(err, domain.ErrPeriodNotFound),
		errors.Is(err, domain.ErrRouteNotFound),
		errors.Is(err, domain.ErrRefuelingNotFound),
		errors.Is(err, domain.ErrExpenseNotFound),
		errors.Is(err, domain.ErrCouplingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActivePeriod),
		errors.Is(err, domain.ErrCadenceClosed),
		errors.Is(err, domain.ErrCouplingClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDateBackwards),
		errors.Is(err, domain.ErrOdometerBackwards),
		errors.Is(err, domain.ErrEngineHoursBackwards):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps err through statusFor and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
