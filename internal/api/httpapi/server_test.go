package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	model "github.com/oshokin/thermal-monitor/internal/domain/monitor"
	"github.com/oshokin/thermal-monitor/internal/domain/thermal"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/health"
)

// fakeMonitor serves fixed readings.
type fakeMonitor struct {
	entry    thermal.Entry
	hasFrame bool
	events   []domain.Event
	limit    int
}

// Latest returns the configured frame.
func (f *fakeMonitor) Latest() (thermal.Entry, bool) { return f.entry, f.hasFrame }

// ZoneReadings returns one valid zone.
func (f *fakeMonitor) ZoneReadings() []model.ZoneReading {
	return []model.ZoneReading{{Zone: zone.Zone{ID: 1, Width: 2, Height: 2, Name: "Motor"}, Average: 36.5, Valid: true}}
}

// Events records the requested limit.
func (f *fakeMonitor) Events(_ context.Context, limit int) []domain.Event {
	f.limit = limit

	return f.events
}

// fakeHealth returns a fixed report.
type fakeHealth struct{ status string }

// Report implements HealthReporter.
func (f fakeHealth) Report(context.Context) health.Report {
	return health.Report{Status: f.status, Checks: map[string]health.Check{}}
}

func serve(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, path, nil)
	srv.Router().ServeHTTP(rec, req)

	return rec
}

// TestRouter_Healthz answers ok.
func TestRouter_Healthz(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(new(fakeMonitor), fakeHealth{health.StatusOK}, nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

// TestRouter_Health maps a degraded report to 503.
func TestRouter_Health(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(new(fakeMonitor), fakeHealth{health.StatusOK}, nil), "/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, NewServer(new(fakeMonitor), fakeHealth{health.StatusDegraded}, nil), "/api/v1/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestRouter_RealTime returns the latest frame or 503 before the first one.
func TestRouter_RealTime(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(new(fakeMonitor), fakeHealth{}, nil), "/api/v1/thermal/real-time")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	frame := thermal.Fill(20)
	frame[5] = 45

	mon := &fakeMonitor{entry: thermal.Entry{Timestamp: time.Unix(100, 0).UTC(), Frame: frame}, hasFrame: true}
	rec = serve(t, NewServer(mon, fakeHealth{}, nil), "/api/v1/thermal/real-time")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body frameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, thermal.Columns, body.Width)
	require.Equal(t, thermal.Rows, body.Height)
	require.Len(t, body.Data, thermal.FrameSize)
	require.InDelta(t, 45.0, float64(body.Max), 1e-6)
}

// TestRouter_Zones lists zones and resolves single averages.
func TestRouter_Zones(t *testing.T) {
	t.Parallel()

	srv := NewServer(new(fakeMonitor), fakeHealth{}, nil)

	rec := serve(t, srv, "/api/v1/zones")
	require.Equal(t, http.StatusOK, rec.Code)

	var readings []model.ZoneReading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &readings))
	require.Len(t, readings, 1)

	rec = serve(t, srv, "/api/v1/zones/1/average")
	require.Equal(t, http.StatusOK, rec.Code)

	var reading model.ZoneReading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reading))
	require.InDelta(t, 36.5, reading.Average, 1e-9)

	require.Equal(t, http.StatusNotFound, serve(t, srv, "/api/v1/zones/7/average").Code)
	require.Equal(t, http.StatusBadRequest, serve(t, srv, "/api/v1/zones/x/average").Code)
}

// TestRouter_Events passes the limit through and renders an empty list as [].
func TestRouter_Events(t *testing.T) {
	t.Parallel()

	mon := new(fakeMonitor)
	srv := NewServer(mon, fakeHealth{}, nil)

	rec := serve(t, srv, "/api/v1/events")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
	require.Equal(t, defaultEventLimit, mon.limit)

	serve(t, srv, "/api/v1/events?limit=5")
	require.Equal(t, 5, mon.limit)

	require.Equal(t, http.StatusBadRequest, serve(t, srv, "/api/v1/events?limit=-1").Code)
}

// TestRouter_Metrics exposes the registry.
func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "thermal_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := serve(t, NewServer(new(fakeMonitor), fakeHealth{}, reg), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "thermal_test_total 1")
}
