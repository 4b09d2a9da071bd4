// Package session owns the per-tourist evaluation pipeline: zone cache,
// evaluator, dispatcher, escalation timer, and panic machine. All state is
// scoped to one tourist; no cross-session locking exists.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trailguard/internal/alerting"
	"trailguard/internal/escalation"
	"trailguard/internal/events"
	"trailguard/internal/geofence"
	"trailguard/internal/platform/metrics"
	"trailguard/internal/reporting"
	"trailguard/internal/sos"
	"trailguard/internal/zones"
	dErrors "trailguard/pkg/domain-errors"
)

// Deps carries the shared collaborators sessions are built from.
type Deps struct {
	Repository zones.Repository
	Membership geofence.MembershipStore
	Sink       alerting.Sink
	Reporter   reporting.Reporter
	Publisher  *events.Publisher
	Logger     *slog.Logger
	Metrics    *metrics.Metrics

	ZoneRadiusKm        float64
	ZoneRefreshInterval time.Duration
	EscalationDelay     time.Duration
	CountdownTick       time.Duration
}

// Session is one tourist's pipeline. Samples are processed one at a time in
// arrival order; the mutex serializes them. Timers run independently and are
// cancellable before firing.
type Session struct {
	touristID  string
	deps       Deps
	cache      *zones.Cache
	evaluator  *geofence.Evaluator
	dispatcher *alerting.Dispatcher
	escalation *escalation.Timer
	machine    *sos.Machine

	mu sync.Mutex // serializes Evaluate

	locMu    sync.RWMutex
	lastLoc  reporting.Location
	hasFixed bool
}

// New builds a session. The escalation timer's location comes from the last
// evaluated sample; the panic machine shares the same source.
func New(touristID string, deps Deps) *Session {
	s := &Session{
		touristID: touristID,
		deps:      deps,
		cache:     zones.NewCache(deps.Repository, deps.ZoneRadiusKm, deps.ZoneRefreshInterval),
	}
	s.evaluator = geofence.NewEvaluator(deps.Membership, deps.Logger, deps.Metrics)
	s.escalation = escalation.NewTimer(touristID, deps.Reporter, s.lastKnownLocation,
		deps.Publisher, deps.Logger, deps.Metrics)
	s.machine = sos.NewMachine(touristID, deps.Reporter, locationProvider{s},
		deps.Sink, deps.Publisher, deps.CountdownTick, deps.Logger, deps.Metrics)
	s.dispatcher = alerting.NewDispatcher(deps.Sink, &escalationGate{session: s},
		deps.EscalationDelay, deps.Logger, deps.Metrics)
	return s
}

// Evaluate runs one sample through the pipeline: opportunistic zone refresh,
// membership evaluation, then notification dispatch per violation. A failed
// refresh is logged and evaluation proceeds on the stale cache.
func (s *Session) Evaluate(ctx context.Context, sample geofence.Sample) ([]geofence.Violation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refreshed, err := s.cache.MaybeRefresh(ctx, sample.Latitude, sample.Longitude)
	if err != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.ZoneRefreshFailures.Inc()
		}
		s.deps.Logger.WarnContext(ctx, "zone refresh failed, using stale cache",
			"tourist_id", s.touristID, "error", err)
	}
	if refreshed {
		if err := s.deps.Membership.Prune(ctx, s.touristID, s.cache.ZoneIDs()); err != nil {
			s.deps.Logger.WarnContext(ctx, "membership prune failed",
				"tourist_id", s.touristID, "error", err)
		}
	}

	violations, evalErr := s.evaluator.Evaluate(ctx, s.touristID, sample, s.cache.Zones())

	s.recordLocation(sample)

	// A mid-batch membership write failure still returns the committed
	// violations; those are dispatched so no recorded transition goes
	// unnotified.
	for _, v := range violations {
		s.dispatcher.Dispatch(ctx, v)
		eventType := events.TypeZoneExited
		if v.Kind == geofence.Entered {
			eventType = events.TypeZoneEntered
		}
		_ = s.deps.Publisher.Emit(ctx, events.Event{
			Type: eventType, TouristID: s.touristID, ZoneID: v.Zone.ID,
		})
	}

	return violations, evalErr
}

// ZoneStatus returns the current membership snapshot.
func (s *Session) ZoneStatus(ctx context.Context) (map[string]bool, error) {
	return s.deps.Membership.Snapshot(ctx, s.touristID)
}

// StartPanic hands a panic press to the state machine. Explicit user intent
// supersedes the automatic path, so any armed escalation timer is disarmed
// first (single armed timer per tourist).
func (s *Session) StartPanic(ctx context.Context, mode sos.Mode, delaySeconds int) error {
	s.escalation.Cancel()
	return s.machine.Start(ctx, mode, delaySeconds)
}

// CancelPanic cancels an active countdown; no-op otherwise.
func (s *Session) CancelPanic(ctx context.Context) error {
	return s.machine.Cancel(ctx)
}

// PanicStatus exposes the panic machine snapshot.
func (s *Session) PanicStatus() sos.Snapshot {
	return s.machine.Status()
}

// QuickReport submits a one-shot incident, independent of panic state.
func (s *Session) QuickReport(ctx context.Context, incidentType reporting.IncidentType) (reporting.Ack, error) {
	return s.machine.QuickReport(ctx, incidentType)
}

func (s *Session) recordLocation(sample geofence.Sample) {
	s.locMu.Lock()
	s.lastLoc = reporting.Location{
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Accuracy:  sample.Accuracy,
	}
	s.hasFixed = true
	s.locMu.Unlock()
}

// lastKnownLocation feeds the escalation timer's synthesized incident. A zero
// location is acceptable there; the zone reference carries the context.
func (s *Session) lastKnownLocation() reporting.Location {
	s.locMu.RLock()
	defer s.locMu.RUnlock()
	return s.lastLoc
}

// locationProvider adapts the session's last sample to the panic machine's
// location port.
type locationProvider struct {
	session *Session
}

func (p locationProvider) Current(_ context.Context) (reporting.Location, error) {
	p.session.locMu.RLock()
	defer p.session.locMu.RUnlock()
	if !p.session.hasFixed {
		return reporting.Location{}, dErrors.New(dErrors.CodeNotFound, "no location fix yet")
	}
	return p.session.lastLoc, nil
}

// escalationGate enforces the single-slot invariant between the automatic
// escalation timer and the user-driven panic flow: while a panic countdown or
// trigger is active, automatic arming is suppressed.
type escalationGate struct {
	session *Session
}

func (g *escalationGate) Arm(zone geofence.RiskZone, delay time.Duration) {
	if g.session.machine.Active() {
		g.session.deps.Logger.Info("escalation suppressed, panic flow active",
			"tourist_id", g.session.touristID, "zone_id", zone.ID)
		return
	}
	g.session.escalation.Arm(zone, delay)
}

func (g *escalationGate) CancelZone(zoneID string) {
	g.session.escalation.CancelZone(zoneID)
}
