package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/domain/zone"
	"github.com/oshokin/thermal-monitor/internal/logger"
	alarmsvc "github.com/oshokin/thermal-monitor/internal/service/alarm"
)

// maxRequestBody bounds the size of a mutation request body.
const maxRequestBody = 64 << 10

// errBadRequest marks malformed request bodies and path parameters.
var errBadRequest = errors.New("bad request")

// Admin changes zones and alarms at runtime.
type Admin interface {
	Zones() []zone.Zone
	AddZone(ctx context.Context, z zone.Zone) (zone.Zone, error)
	RemoveZone(ctx context.Context, id int64) error
	Alarms() []*domain.Config
	ConfigureAlarm(
		ctx context.Context,
		id, zoneID int64,
		threshold float64,
		opts ...alarmsvc.AlarmOption,
	) (*domain.Config, error)
	RemoveAlarm(ctx context.Context, id int64) error
	ReloadAlarms(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithAdmin enables the zone and alarm mutation routes.
func WithAdmin(admin Admin) Option {
	return func(s *Server) {
		s.admin = admin
	}
}

// alarmRequest is the body of POST /api/v1/alarms.
type alarmRequest struct {
	// ID identifies the alarm to create or replace.
	ID int64 `json:"id"`
	// ZoneID references the watched zone.
	ZoneID int64 `json:"zone_id"`
	// Threshold is required.
	Threshold *float64 `json:"threshold"`
	// Enabled defaults to true.
	Enabled *bool `json:"enabled,omitempty"`
	// CooldownSeconds defaults to the alarm default cooldown.
	CooldownSeconds *float64 `json:"cooldown_seconds,omitempty"`
}

// statusResponse acknowledges a mutation without a resource body.
type statusResponse struct {
	Status string `json:"status"`
}

// errorResponse carries the failure reason.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) adminRoutes(r chi.Router) {
	r.Post("/zones", s.handleAddZone)
	r.Delete("/zones/{id}", s.handleRemoveZone)

	r.Get("/alarms", s.handleAlarms)
	r.Post("/alarms", s.handleConfigureAlarm)
	r.Post("/alarms/reload", s.handleReloadAlarms)
	r.Delete("/alarms/{id}", s.handleRemoveAlarm)
}

func (s *Server) handleAddZone(w http.ResponseWriter, r *http.Request) {
	var z zone.Zone
	if err := decodeBody(w, r, &z); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	added, err := s.admin.AddZone(r.Context(), z)
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, added)
}

func (s *Server) handleRemoveZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	if err = s.admin.RemoveZone(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	alarms := s.admin.Alarms()
	if alarms == nil {
		alarms = []*domain.Config{}
	}

	writeJSON(r.Context(), w, http.StatusOK, alarms)
}

func (s *Server) handleConfigureAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarmRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	if req.Threshold == nil {
		writeError(r.Context(), w, fmt.Errorf("%w: threshold is required", errBadRequest))

		return
	}

	var opts []alarmsvc.AlarmOption

	if req.Enabled != nil {
		opts = append(opts, alarmsvc.WithEnabled(*req.Enabled))
	}

	if req.CooldownSeconds != nil {
		cooldown := time.Duration(math.Round(*req.CooldownSeconds * float64(time.Second)))
		opts = append(opts, alarmsvc.WithCooldown(cooldown))
	}

	cfg, err := s.admin.ConfigureAlarm(r.Context(), req.ID, req.ZoneID, *req.Threshold, opts...)
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, cfg)
}

func (s *Server) handleRemoveAlarm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)

		return
	}

	if err = s.admin.RemoveAlarm(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (s *Server) handleReloadAlarms(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.ReloadAlarms(r.Context()); err != nil {
		writeError(r.Context(), w, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, statusResponse{Status: "reloaded"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}

	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", errBadRequest, chi.URLParam(r, "id"))
	}

	return id, nil
}

// statusCode maps service errors to HTTP status codes.
func statusCode(err error) int {
	switch {
	case errors.Is(err, alarmsvc.ErrAlarmNotFound), errors.Is(err, zone.ErrZoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, zone.ErrZoneInUse):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, alarmsvc.ErrUnknownZone),
		errors.Is(err, alarmsvc.ErrInvalidAlarm),
		errors.Is(err, zone.ErrInvalidZone),
		errors.Is(err, zone.ErrZoneLimit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorKV(ctx, "Admin request failed", "error", err)
	} else {
		logger.WarnKV(ctx, "Admin request rejected", "status", code, "error", err)
	}

	writeJSON(ctx, w, code, errorResponse{Error: err.Error()})
}
