// Package escalation implements the cancellable auto-escalation timer armed
// on maximum-severity zone entries. One slot per tourist: arming replaces any
// armed timer, and a cancel requested before expiry always wins.
package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trailguard/internal/events"
	"trailguard/internal/geofence"
	"trailguard/internal/platform/metrics"
	"trailguard/internal/reporting"
)

// LocationFunc supplies the tourist's last known position for the
// synthesized incident.
type LocationFunc func() reporting.Location

// Timer is the single-slot delayed emergency trigger for one tourist.
//
// The cancel/fire race is resolved with a generation counter: every Arm and
// Cancel bumps the generation, and the expiry callback re-checks it under the
// lock before committing. A stale callback returns without side effects, so
// the report fires at most once, and only if no cancel landed first.
type Timer struct {
	touristID string
	reporter  reporting.Reporter
	locate    LocationFunc
	publisher *events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
	zone  *geofence.RiskZone
}

func NewTimer(touristID string, reporter reporting.Reporter, locate LocationFunc,
	publisher *events.Publisher, logger *slog.Logger, m *metrics.Metrics) *Timer {
	return &Timer{
		touristID: touristID,
		reporter:  reporter,
		locate:    locate,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// Arm schedules an automatic emergency report unless cancelled within delay.
// A previously armed timer is cancelled first; there are never two pending.
func (t *Timer) Arm(zone geofence.RiskZone, delay time.Duration) {
	t.mu.Lock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	zoneCopy := zone
	t.zone = &zoneCopy
	t.timer = time.AfterFunc(delay, func() { t.fire(gen) })
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.EscalationsArmed.Inc()
	}
	t.logger.Info("escalation timer armed",
		"tourist_id", t.touristID, "zone_id", zone.ID, "delay", delay)
	_ = t.publisher.Emit(context.Background(), events.Event{
		Type: events.TypeEscalationArmed, TouristID: t.touristID, ZoneID: zone.ID,
	})
}

// Cancel disarms the timer. Idempotent; safe with nothing armed.
func (t *Timer) Cancel() {
	t.mu.Lock()
	cancelled := t.stopLocked()
	t.gen++
	t.mu.Unlock()

	if cancelled.ID != "" {
		if t.metrics != nil {
			t.metrics.EscalationsCancelled.Inc()
		}
		t.logger.Info("escalation timer cancelled",
			"tourist_id", t.touristID, "zone_id", cancelled.ID)
		_ = t.publisher.Emit(context.Background(), events.Event{
			Type: events.TypeEscalationCancelled, TouristID: t.touristID, ZoneID: cancelled.ID,
		})
	}
}

// CancelZone disarms the timer only if it is armed for the given zone,
// e.g. when the tourist exits the zone that armed it.
func (t *Timer) CancelZone(zoneID string) {
	t.mu.Lock()
	match := t.zone != nil && t.zone.ID == zoneID
	t.mu.Unlock()
	if match {
		t.Cancel()
	}
}

// ArmedZone returns the zone the timer is armed for, if any.
func (t *Timer) ArmedZone() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.zone == nil {
		return "", false
	}
	return t.zone.ID, true
}

// stopLocked clears the armed slot and returns the zone it held.
func (t *Timer) stopLocked() geofence.RiskZone {
	var zone geofence.RiskZone
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.zone != nil {
		zone = *t.zone
		t.zone = nil
	}
	return zone
}

// fire runs on timer expiry. The armed slot is cleared under the lock before
// the report is submitted, so a cancel arriving afterwards is a no-op and the
// report commits fully.
func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.zone == nil {
		t.mu.Unlock()
		return
	}
	zone := *t.zone
	t.zone = nil
	t.timer = nil
	t.gen++
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.EscalationsFired.Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	incident := reporting.Incident{
		ID:        uuid.NewString(),
		TouristID: t.touristID,
		Type:      reporting.TypeAutoEscalation,
		Location:  t.locate(),
		Description: fmt.Sprintf("No response after entering high-risk zone %q (risk level %d/5)",
			zone.Name, zone.RiskLevel),
		Timestamp: time.Now(),
	}

	t.logger.Warn("escalation timer fired, submitting emergency report",
		"tourist_id", t.touristID, "zone_id", zone.ID, "incident_id", incident.ID)
	_ = t.publisher.Emit(ctx, events.Event{
		Type: events.TypeEscalationFired, TouristID: t.touristID,
		ZoneID: zone.ID, IncidentID: incident.ID,
	})

	if _, err := t.reporter.Submit(ctx, incident); err != nil {
		// Known gap: auto-escalation is not retried. The metric exists so a
		// higher layer can alert on missed reports.
		if t.metrics != nil {
			t.metrics.EscalationSubmitFailures.Inc()
		}
		t.logger.Error("auto-escalation report failed",
			"tourist_id", t.touristID, "incident_id", incident.ID, "error", err)
		return
	}
	_ = t.publisher.Emit(ctx, events.Event{
		Type: events.TypeIncidentSubmitted, TouristID: t.touristID,
		ZoneID: zone.ID, IncidentID: incident.ID,
	})
}
