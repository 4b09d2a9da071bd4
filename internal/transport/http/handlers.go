// Package httpapi is the thin HTTP layer over the session manager. Handlers
// validate and translate; the pipeline logic stays in the session packages.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trailguard/internal/geofence"
	"trailguard/internal/platform/middleware"
	"trailguard/internal/reporting"
	"trailguard/internal/sos"
	"trailguard/internal/transport/http/shared"
	dErrors "trailguard/pkg/domain-errors"
)

// SessionService is the slice of the session manager the handlers use.
type SessionService interface {
	Evaluate(ctx context.Context, touristID string, sample geofence.Sample) ([]geofence.Violation, error)
	ZoneStatus(ctx context.Context, touristID string) (map[string]bool, error)
	StartPanic(ctx context.Context, touristID string, mode sos.Mode, delaySeconds int) error
	CancelPanic(ctx context.Context, touristID string) error
	QuickReport(ctx context.Context, touristID string, incidentType reporting.IncidentType) (reporting.Ack, error)
}

//go:generate mockgen -source=handlers.go -destination=mocks/session_service.go -package=mocks SessionService

// Handler handles the geofence and emergency endpoints.
type Handler struct {
	logger  *slog.Logger
	service SessionService
}

func New(service SessionService, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the API routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(middleware.ContentTypeJSON)

	api.Post("/location/update", h.handleLocationUpdate)
	api.Get("/location/zones/status", h.handleZoneStatus)
	api.Post("/emergency/panic", h.handlePanicStart)
	api.Post("/emergency/panic/cancel", h.handlePanicCancel)
	api.Post("/emergency/report", h.handleQuickReport)

	r.Mount("/api/v1", api)
}

type locationUpdateRequest struct {
	TouristID string    `json:"tourist_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

type violationResponse struct {
	ZoneID    string    `json:"zone_id"`
	ZoneName  string    `json:"zone_name"`
	ZoneType  string    `json:"zone_type"`
	RiskLevel int       `json:"risk_level"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

type locationUpdateResponse struct {
	Violations []violationResponse `json:"violations"`
}

func (h *Handler) handleLocationUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req locationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.TouristID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tourist_id is required"))
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "coordinates out of range"))
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	violations, err := h.service.Evaluate(ctx, req.TouristID, geofence.Sample{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "sample evaluation failed",
			"request_id", middleware.GetRequestID(ctx),
			"tourist_id", req.TouristID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	resp := locationUpdateResponse{Violations: make([]violationResponse, 0, len(violations))}
	for _, v := range violations {
		resp.Violations = append(resp.Violations, violationResponse{
			ZoneID:    v.Zone.ID,
			ZoneName:  v.Zone.Name,
			ZoneType:  string(v.Zone.Type),
			RiskLevel: v.Zone.RiskLevel,
			Kind:      string(v.Kind),
			Timestamp: v.Timestamp,
		})
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

type zoneStatusResponse struct {
	TouristID string          `json:"tourist_id"`
	Zones     map[string]bool `json:"zones"`
}

func (h *Handler) handleZoneStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	touristID := r.URL.Query().Get("tourist_id")
	if touristID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tourist_id is required"))
		return
	}

	zones, err := h.service.ZoneStatus(ctx, touristID)
	if err != nil {
		h.logger.ErrorContext(ctx, "zone status lookup failed",
			"request_id", middleware.GetRequestID(ctx),
			"tourist_id", touristID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, zoneStatusResponse{TouristID: touristID, Zones: zones})
}

type panicStartRequest struct {
	TouristID    string `json:"tourist_id"`
	Mode         string `json:"mode"`
	DelaySeconds int    `json:"delay_seconds"`
}

func (h *Handler) handlePanicStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req panicStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.TouristID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tourist_id is required"))
		return
	}
	mode := sos.Mode(req.Mode)
	if mode != sos.ModeImmediate && mode != sos.ModeDelayed {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "mode must be immediate or delayed"))
		return
	}

	if err := h.service.StartPanic(ctx, req.TouristID, mode, req.DelaySeconds); err != nil {
		h.logger.ErrorContext(ctx, "panic start failed",
			"request_id", middleware.GetRequestID(ctx),
			"tourist_id", req.TouristID,
			"mode", req.Mode,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type panicCancelRequest struct {
	TouristID string `json:"tourist_id"`
}

func (h *Handler) handlePanicCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req panicCancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.TouristID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tourist_id is required"))
		return
	}

	if err := h.service.CancelPanic(ctx, req.TouristID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type quickReportRequest struct {
	TouristID    string `json:"tourist_id"`
	IncidentType string `json:"incident_type"`
}

type quickReportResponse struct {
	IncidentID string    `json:"incident_id"`
	ReceivedAt time.Time `json:"received_at"`
}

func (h *Handler) handleQuickReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req quickReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.TouristID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tourist_id is required"))
		return
	}
	incidentType, err := reporting.ParseQuickReportType(req.IncidentType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ack, err := h.service.QuickReport(ctx, req.TouristID, incidentType)
	if err != nil {
		h.logger.ErrorContext(ctx, "quick report failed",
			"request_id", middleware.GetRequestID(ctx),
			"tourist_id", req.TouristID,
			"type", req.IncidentType,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, quickReportResponse{
		IncidentID: ack.IncidentID,
		ReceivedAt: ack.ReceivedAt,
	})
}
