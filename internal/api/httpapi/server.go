package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
	"github.com/oshokin/thermal-monitor/internal/health"
	"github.com/oshokin/thermal-monitor/internal/logger"
)

// defaultEventLimit is used when /api/v1/events has no limit parameter.
const defaultEventLimit = 100

// Monitor is the read side of the pipeline.
type Monitor interface {
	Latest() (thermal.Entry, bool)
	ZoneReadings() []model.ZoneReading
	Events(ctx context.Context, limit int) []domain.Event
}

// HealthReporter produces health reports.
type HealthReporter interface {
	Report(ctx context.Context) health.Report
}

// Server holds the HTTP handlers.
type Server struct {
	// monitor supplies frames, zones and events.
	monitor Monitor
	// health supplies health reports.
	health HealthReporter
	// gatherer backs /metrics; nil disables the endpoint.
	gatherer prometheus.Gatherer
	// admin backs the mutation routes; nil leaves the API read-only.
	admin Admin
}

// NewServer creates the HTTP handlers.
func NewServer(monitor Monitor, health HealthReporter, gatherer prometheus.Gatherer, opts ...Option) *Server {
	s := &Server{
		monitor:  monitor,
		health:   health,
		gatherer: gatherer,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// frameResponse is the JSON form of the latest frame.
type frameResponse struct {
	// Timestamp is the capture time.
	Timestamp time.Time `json:"timestamp"`
	// Width is the number of columns.
	Width int `json:"width"`
	// Height is the number of rows.
	Height int `json:"height"`
	// Max is the hottest reading.
	Max float32 `json:"max"`
	// Data holds the readings row-major.
	Data []float64 `json:"data"`
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/thermal/real-time", s.handleRealTime)
		r.Get("/zones", s.handleZones)
		r.Get("/zones/{id}/average", s.handleZoneAverage)
		r.Get("/events", s.handleEvents)

		if s.admin != nil {
			s.adminRoutes(r)
		}
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Report(r.Context())

	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}

	writeJSON(r.Context(), w, code, report)
}

func (s *Server) handleRealTime(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.monitor.Latest()
	if !ok {
		http.Error(w, "no frame captured yet", http.StatusServiceUnavailable)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, frameResponse{
		Timestamp: entry.Timestamp,
		Width:     thermal.Columns,
		Height:    thermal.Rows,
		Max:       entry.Frame.Max(),
		Data:      entry.Frame.Values(),
	})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, s.monitor.ZoneReadings())
}

func (s *Server) handleZoneAverage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad zone id", http.StatusBadRequest)

		return
	}

	for _, reading := range s.monitor.ZoneReadings() {
		if reading.Zone.ID == id {
			writeJSON(r.Context(), w, http.StatusOK, reading)

			return
		}
	}

	http.Error(w, "zone not found", http.StatusNotFound)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)

			return
		}

		limit = n
	}

	events := s.monitor.Events(r.Context(), limit)
	if events == nil {
		events = []domain.Event{}
	}

	writeJSON(r.Context(), w, http.StatusOK, events)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnKV(ctx, "Failed to write response", "error", err)
	}
}
