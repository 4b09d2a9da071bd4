// Package sos implements the user-driven panic flow: a cancellable countdown
// that converts into an emergency report, an immediate trigger, and stateless
// one-shot quick reports.
package sos

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"trailguard/internal/alerting"
	"trailguard/internal/events"
	"trailguard/internal/platform/metrics"
	"trailguard/internal/reporting"
	dErrors "trailguard/pkg/domain-errors"
)

// State of the panic machine.
type State string

const (
	StateIdle      State = "idle"
	StateCountdown State = "countdown"
	StateTriggered State = "triggered"
)

// Mode selects how a panic press is handled.
type Mode string

const (
	ModeImmediate Mode = "immediate"
	ModeDelayed   Mode = "delayed"
)

const defaultCountdownSeconds = 5

// LocationProvider supplies the current position when an incident is built.
// The location-acquisition layer is external; the session pipeline adapts its
// last known sample to this interface.
type LocationProvider interface {
	Current(ctx context.Context) (reporting.Location, error)
}

// Snapshot is the externally visible machine state.
type Snapshot struct {
	State            State
	Mode             Mode
	RemainingSeconds int
	StartedAt        time.Time
	LastError        string
}

// Machine is the per-tourist panic state machine. A countdown runs on a
// single owned ticker; cancelling bumps the generation so a racing tick is a
// no-op. After a trigger completes (reported or failed) the machine returns
// to idle so a new session can start; the failure stays visible in the
// snapshot for the retry prompt.
type Machine struct {
	touristID string
	reporter  reporting.Reporter
	locations LocationProvider
	sink      alerting.Sink
	publisher *events.Publisher
	tick      time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu        sync.Mutex
	state     State
	mode      Mode
	remaining int
	startedAt time.Time
	lastError string
	gen       uint64
}

func NewMachine(touristID string, reporter reporting.Reporter, locations LocationProvider,
	sink alerting.Sink, publisher *events.Publisher, tick time.Duration,
	logger *slog.Logger, m *metrics.Metrics) *Machine {
	if tick <= 0 {
		tick = time.Second
	}
	return &Machine{
		touristID: touristID,
		reporter:  reporter,
		locations: locations,
		sink:      sink,
		publisher: publisher,
		tick:      tick,
		logger:    logger,
		metrics:   m,
		state:     StateIdle,
	}
}

// Start handles a panic press. Immediate mode triggers synchronously and
// returns the submission error, if any. Delayed mode starts a countdown of
// delaySeconds (default 5) that auto-triggers at zero.
func (m *Machine) Start(ctx context.Context, mode Mode, delaySeconds int) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "emergency already in progress")
	}

	switch mode {
	case ModeImmediate:
		m.state = StateTriggered
		m.mode = ModeImmediate
		m.startedAt = time.Now()
		m.mu.Unlock()
		return m.trigger(ctx)

	case ModeDelayed:
		if delaySeconds <= 0 {
			delaySeconds = defaultCountdownSeconds
		}
		m.state = StateCountdown
		m.mode = ModeDelayed
		m.remaining = delaySeconds
		m.startedAt = time.Now()
		m.gen++
		gen := m.gen
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.PanicsStarted.Inc()
		}
		m.logger.Info("panic countdown started",
			"tourist_id", m.touristID, "seconds", delaySeconds)
		_ = m.publisher.Emit(ctx, events.Event{
			Type: events.TypePanicStarted, TouristID: m.touristID,
			Detail: fmt.Sprintf("countdown %ds", delaySeconds),
		})

		go m.countdown(gen)
		return nil

	default:
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeBadRequest, "invalid panic mode: "+string(mode))
	}
}

// Cancel stops an active countdown and returns the machine to idle without
// reporting. Idempotent: cancelling with no countdown is a no-op.
func (m *Machine) Cancel(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateCountdown {
		m.mu.Unlock()
		return nil
	}
	m.gen++
	m.state = StateIdle
	m.remaining = 0
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.PanicsCancelled.Inc()
	}
	m.logger.Info("panic countdown cancelled", "tourist_id", m.touristID)
	_ = m.publisher.Emit(ctx, events.Event{
		Type: events.TypePanicCancelled, TouristID: m.touristID,
	})
	return nil
}

// Status returns a copy of the current machine state.
func (m *Machine) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:            m.state,
		Mode:             m.mode,
		RemainingSeconds: m.remaining,
		StartedAt:        m.startedAt,
		LastError:        m.lastError,
	}
}

// Active reports whether a countdown or trigger is in progress. The session
// layer uses this to suppress automatic escalation while the user is already
// handling an emergency.
func (m *Machine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != StateIdle
}

// QuickReport submits a one-shot incident of the given type. It does not
// interact with the countdown state at all.
func (m *Machine) QuickReport(ctx context.Context, incidentType reporting.IncidentType) (reporting.Ack, error) {
	location := m.currentLocation(ctx)
	incident := reporting.Incident{
		ID:          uuid.NewString(),
		TouristID:   m.touristID,
		Type:        incidentType,
		Location:    location,
		Description: fmt.Sprintf("%s emergency reported by user", incidentType),
		Timestamp:   time.Now(),
	}

	ack, err := m.reporter.Submit(ctx, incident)
	if err != nil {
		m.logger.Warn("quick report submission failed",
			"tourist_id", m.touristID, "type", incidentType, "error", err)
		return reporting.Ack{}, err
	}

	if m.metrics != nil {
		m.metrics.QuickReportsTotal.WithLabelValues(string(incidentType)).Inc()
	}
	_ = m.publisher.Emit(ctx, events.Event{
		Type: events.TypeIncidentSubmitted, TouristID: m.touristID, IncidentID: incident.ID,
		Detail: string(incidentType),
	})
	return ack, nil
}

// countdown owns the ticker for one countdown generation. A cancel or a
// newer generation stops it between ticks.
func (m *Machine) countdown(gen uint64) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		if m.gen != gen || m.state != StateCountdown {
			m.mu.Unlock()
			return
		}
		m.remaining--
		if m.remaining > 0 {
			m.mu.Unlock()
			continue
		}
		m.state = StateTriggered
		m.remaining = 0
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := m.trigger(ctx); err != nil {
			m.logger.Error("panic trigger after countdown failed",
				"tourist_id", m.touristID, "error", err)
		}
		cancel()
		return
	}
}

// trigger submits the panic incident. Called with state already Triggered.
// Failure is surfaced to the user via the notification sink and the returned
// error; there is no automatic retry.
func (m *Machine) trigger(ctx context.Context) error {
	location := m.currentLocation(ctx)
	incident := reporting.Incident{
		ID:          uuid.NewString(),
		TouristID:   m.touristID,
		Type:        reporting.TypePanic,
		Location:    location,
		Description: "Panic button activated by user",
		Timestamp:   time.Now(),
	}

	ack, err := m.reporter.Submit(ctx, incident)

	m.mu.Lock()
	m.state = StateIdle
	m.remaining = 0
	if err != nil {
		m.lastError = err.Error()
	} else {
		m.lastError = ""
	}
	m.mu.Unlock()

	if err != nil {
		m.showNotification(ctx, alerting.Notification{
			Title:    "Alert Failed",
			Body:     "Failed to send emergency alert. Please try again or call emergency services directly.",
			Severity: alerting.SeverityDanger,
		})
		return fmt.Errorf("submit panic incident: %w", err)
	}

	if m.metrics != nil {
		m.metrics.PanicsTriggered.Inc()
	}
	m.logger.Warn("panic incident submitted",
		"tourist_id", m.touristID, "incident_id", incident.ID, "ack_id", ack.IncidentID)
	_ = m.publisher.Emit(ctx, events.Event{
		Type: events.TypePanicTriggered, TouristID: m.touristID, IncidentID: incident.ID,
	})
	m.showNotification(ctx, alerting.Notification{
		Title:    "Emergency Alert Sent",
		Body:     "Your emergency alert has been sent to local authorities and your emergency contacts.",
		Severity: alerting.SeverityInfo,
	})
	return nil
}

// currentLocation asks the provider and falls back to a zero location rather
// than blocking an emergency on a position fix.
func (m *Machine) currentLocation(ctx context.Context) reporting.Location {
	location, err := m.locations.Current(ctx)
	if err != nil {
		m.logger.Warn("location unavailable for incident",
			"tourist_id", m.touristID, "error", err)
		return reporting.Location{}
	}
	return location
}

func (m *Machine) showNotification(ctx context.Context, n alerting.Notification) {
	if err := m.sink.Show(ctx, n); err != nil {
		m.logger.Warn("notification delivery failed", "tourist_id", m.touristID, "error", err)
	}
}
