// Package events emits safety events for the dashboard and audit side.
// Emission is fire-and-forget from the pipeline's point of view: a full
// buffer drops the event and counts it rather than blocking evaluation.
package events

import "time"

// Type identifies what happened.
type Type string

const (
	TypeZoneEntered         Type = "zone_entered"
	TypeZoneExited          Type = "zone_exited"
	TypeEscalationArmed     Type = "escalation_armed"
	TypeEscalationCancelled Type = "escalation_cancelled"
	TypeEscalationFired     Type = "escalation_fired"
	TypePanicStarted        Type = "panic_started"
	TypePanicCancelled      Type = "panic_cancelled"
	TypePanicTriggered      Type = "panic_triggered"
	TypeIncidentSubmitted   Type = "incident_submitted"
)

// Event is one safety event. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Type       Type      `json:"type"`
	TouristID  string    `json:"tourist_id"`
	ZoneID     string    `json:"zone_id,omitempty"`
	IncidentID string    `json:"incident_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
