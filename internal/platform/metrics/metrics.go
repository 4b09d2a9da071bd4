package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the geofence pipeline. Components
// accept a nil *Metrics in tests and nil-check before incrementing.
type Metrics struct {
	ViolationsTotal          *prometheus.CounterVec
	SamplesDropped           prometheus.Counter
	DegenerateZonesSkipped   prometheus.Counter
	ZoneRefreshFailures      prometheus.Counter
	NotificationsShown       prometheus.Counter
	NotificationFailures     prometheus.Counter
	EscalationsArmed         prometheus.Counter
	EscalationsCancelled     prometheus.Counter
	EscalationsFired         prometheus.Counter
	EscalationSubmitFailures prometheus.Counter
	PanicsStarted            prometheus.Counter
	PanicsCancelled          prometheus.Counter
	PanicsTriggered          prometheus.Counter
	QuickReportsTotal        *prometheus.CounterVec
}

// New registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// registry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ViolationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trailguard_violations_total",
			Help: "Zone boundary transitions detected, by kind (entered/exited)",
		}, []string{"kind"}),
		SamplesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_samples_dropped_total",
			Help: "Location samples dropped for arriving out of timestamp order",
		}),
		DegenerateZonesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_degenerate_zones_skipped_total",
			Help: "Zones excluded from evaluation because their outer ring has fewer than 3 vertices",
		}),
		ZoneRefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_zone_refresh_failures_total",
			Help: "Failed nearby-zone fetches (stale cache retained)",
		}),
		NotificationsShown: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_notifications_shown_total",
			Help: "Notifications handed to the notification sink",
		}),
		NotificationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_notification_failures_total",
			Help: "Notification sink failures (logged, never propagated)",
		}),
		EscalationsArmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_escalations_armed_total",
			Help: "Auto-escalation timers armed on maximum-severity zone entries",
		}),
		EscalationsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_escalations_cancelled_total",
			Help: "Auto-escalation timers cancelled before expiry",
		}),
		EscalationsFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_escalations_fired_total",
			Help: "Auto-escalation timers that expired and submitted an emergency report",
		}),
		EscalationSubmitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_escalation_submit_failures_total",
			Help: "Auto-escalation reports that failed to submit (not retried)",
		}),
		PanicsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_panics_started_total",
			Help: "Panic countdowns started",
		}),
		PanicsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_panics_cancelled_total",
			Help: "Panic countdowns cancelled by the user",
		}),
		PanicsTriggered: factory.NewCounter(prometheus.CounterOpts{
			Name: "trailguard_panics_triggered_total",
			Help: "Panic incidents submitted (immediate or countdown expiry)",
		}),
		QuickReportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trailguard_quick_reports_total",
			Help: "One-shot incident reports, by incident type",
		}, []string{"type"}),
	}
}
