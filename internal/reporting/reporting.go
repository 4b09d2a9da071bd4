// Package reporting defines the emergency-incident contract with the
// incident backend and a local journal of everything submitted.
package reporting

import (
	"context"
	"time"

	dErrors "trailguard/pkg/domain-errors"
)

// IncidentType labels why an incident was raised.
type IncidentType string

const (
	TypePanic          IncidentType = "panic"
	TypeAutoEscalation IncidentType = "auto_escalation"
	TypeMedical        IncidentType = "medical"
	TypeWildlife       IncidentType = "wildlife"
	TypeWeather        IncidentType = "weather"
	TypeLost           IncidentType = "lost"
)

// ParseQuickReportType validates the categories a tourist may quick-report.
// Panic and auto-escalation are reserved for the state machines.
func ParseQuickReportType(s string) (IncidentType, error) {
	switch t := IncidentType(s); t {
	case TypeMedical, TypeWildlife, TypeWeather, TypeLost:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid quick report type: "+s)
	}
}

// Location is the position attached to an incident.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Incident is one emergency report submitted to the incident backend.
type Incident struct {
	ID          string       `json:"id"`
	TouristID   string       `json:"tourist_id"`
	Type        IncidentType `json:"incident_type"`
	Location    Location     `json:"location"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Ack is the backend's receipt for a submitted incident.
type Ack struct {
	IncidentID string    `json:"incident_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// Reporter submits incidents to the emergency backend. Submission failures
// are returned, never retried here; the caller decides what the user sees.
type Reporter interface {
	Submit(ctx context.Context, incident Incident) (Ack, error)
}
