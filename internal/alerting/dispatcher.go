package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trailguard/internal/geofence"
	"trailguard/internal/platform/metrics"
)

// escalationConsiderLevel is where entries start being considered for
// auto-escalation; only escalationArmLevel actually arms the timer.
const (
	escalationConsiderLevel = 4
	escalationArmLevel      = 5
)

// EscalationControl is the slice of the escalation timer the dispatcher
// drives. The session layer may wrap it to enforce the single-slot invariant
// against an active panic countdown.
type EscalationControl interface {
	Arm(zone geofence.RiskZone, delay time.Duration)
	CancelZone(zoneID string)
}

// Dispatcher turns violations into notifications and escalation decisions.
// Dispatch never blocks on delivery and never fails the evaluation path.
type Dispatcher struct {
	sink       Sink
	escalation EscalationControl
	delay      time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewDispatcher(sink Sink, escalation EscalationControl, delay time.Duration,
	logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		sink:       sink,
		escalation: escalation,
		delay:      delay,
		logger:     logger,
		metrics:    m,
	}
}

// Dispatch maps the violation to a notification, shows it, and arms or
// disarms escalation as a side effect. The notification is returned for
// callers that surface it directly (e.g. the HTTP response).
func (d *Dispatcher) Dispatch(ctx context.Context, v geofence.Violation) Notification {
	var n Notification
	if v.Kind == geofence.Entered {
		n = entryNotification(v.Zone)
	} else {
		n = exitNotification(v.Zone)
	}
	n.ZoneID = v.Zone.ID
	n.Kind = string(v.Kind)

	d.show(ctx, n)

	switch v.Kind {
	case geofence.Entered:
		d.considerEscalation(ctx, v.Zone)
	case geofence.Exited:
		d.escalation.CancelZone(v.Zone.ID)
	}

	return n
}

func entryNotification(zone geofence.RiskZone) Notification {
	switch zone.Type {
	case geofence.ZoneWildlife:
		return Notification{
			Title:    "Geofence Alert",
			Body:     fmt.Sprintf("You've entered %s. Wildlife area - maintain safe distance from animals.", zone.Name),
			Severity: SeverityCaution,
		}
	case geofence.ZoneRestricted:
		return Notification{
			Title:    "Geofence Alert",
			Body:     fmt.Sprintf("You've entered a restricted area: %s. Please exit immediately.", zone.Name),
			Severity: SeverityDanger,
		}
	case geofence.ZoneWeather:
		advisory := "Monitor conditions carefully"
		if zone.ActiveAlert != nil && zone.ActiveAlert.Message != "" {
			advisory = zone.ActiveAlert.Message
		}
		return Notification{
			Title:    "Geofence Alert",
			Body:     fmt.Sprintf("Weather alert in %s: %s", zone.Name, advisory),
			Severity: SeverityCaution,
		}
	default:
		return Notification{
			Title:    "Geofence Alert",
			Body:     fmt.Sprintf("You've entered %s (Risk Level: %d/5)", zone.Name, zone.RiskLevel),
			Severity: SeverityInfo,
		}
	}
}

func exitNotification(zone geofence.RiskZone) Notification {
	return Notification{
		Title:    "Zone Exit",
		Body:     fmt.Sprintf("You've safely exited %s", zone.Name),
		Severity: SeverityInfo,
	}
}

func (d *Dispatcher) show(ctx context.Context, n Notification) {
	if err := d.sink.Show(ctx, n); err != nil {
		if d.metrics != nil {
			d.metrics.NotificationFailures.Inc()
		}
		d.logger.WarnContext(ctx, "notification delivery failed",
			"zone_id", n.ZoneID, "error", err)
		return
	}
	if d.metrics != nil {
		d.metrics.NotificationsShown.Inc()
	}
}

func (d *Dispatcher) considerEscalation(ctx context.Context, zone geofence.RiskZone) {
	if zone.RiskLevel < escalationConsiderLevel {
		return
	}
	if zone.RiskLevel < escalationArmLevel {
		d.logger.InfoContext(ctx, "high-risk entry, escalation considered but not armed",
			"zone_id", zone.ID, "risk_level", zone.RiskLevel)
		return
	}
	d.escalation.Arm(zone, d.delay)
}
