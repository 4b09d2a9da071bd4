package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailguard/internal/alerting"
	"trailguard/internal/events"
	"trailguard/internal/geofence"
	"trailguard/internal/reporting"
	"trailguard/internal/sos"
	"trailguard/internal/zones"
)

type stubRepository struct {
	mu    sync.Mutex
	zones []geofence.RiskZone
}

func (r *stubRepository) QueryNearby(context.Context, float64, float64, float64) ([]geofence.RiskZone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zones, nil
}

type capturingSink struct {
	mu    sync.Mutex
	shown []alerting.Notification
}

func (s *capturingSink) Show(_ context.Context, n alerting.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, n)
	return nil
}

func (s *capturingSink) notifications() []alerting.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]alerting.Notification(nil), s.shown...)
}

type capturingReporter struct {
	mu        sync.Mutex
	incidents []reporting.Incident
}

func (r *capturingReporter) Submit(_ context.Context, incident reporting.Incident) (reporting.Ack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incidents = append(r.incidents, incident)
	return reporting.Ack{IncidentID: incident.ID, ReceivedAt: time.Now()}, nil
}

func (r *capturingReporter) byType(incidentType reporting.IncidentType) []reporting.Incident {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []reporting.Incident
	for _, incident := range r.incidents {
		if incident.Type == incidentType {
			out = append(out, incident)
		}
	}
	return out
}

type fixture struct {
	session  *Session
	repo     *stubRepository
	sink     *capturingSink
	reporter *capturingReporter
	sinkMem  *events.MemorySink
}

func newFixture(t *testing.T, escalationDelay time.Duration, zoneSet ...geofence.RiskZone) *fixture {
	t.Helper()
	repo := &stubRepository{zones: zoneSet}
	sink := &capturingSink{}
	reporter := &capturingReporter{}
	sinkMem := events.NewMemorySink()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := New("tourist-1", Deps{
		Repository:          repo,
		Membership:          geofence.NewInMemoryMembershipStore(),
		Sink:                sink,
		Reporter:            reporter,
		Publisher:           events.NewPublisher(sinkMem, log),
		Logger:              log,
		Metrics:             nil,
		ZoneRadiusKm:        10,
		ZoneRefreshInterval: time.Minute,
		EscalationDelay:     escalationDelay,
		CountdownTick:       10 * time.Millisecond,
	})
	return &fixture{session: s, repo: repo, sink: sink, reporter: reporter, sinkMem: sinkMem}
}

func maxRiskZone() geofence.RiskZone {
	return geofence.RiskZone{
		ID:        "zone-1",
		Name:      "Border Strip",
		Type:      geofence.ZoneRestricted,
		Boundary:  []geofence.Ring{{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 10}, {Lon: 10, Lat: 10}, {Lon: 10, Lat: 0}}},
		RiskLevel: 5,
	}
}

func insideSample(ts time.Time) geofence.Sample {
	return geofence.Sample{Latitude: 5, Longitude: 5, Accuracy: 5, Timestamp: ts}
}

func outsideSample(ts time.Time) geofence.Sample {
	return geofence.Sample{Latitude: 20, Longitude: 20, Accuracy: 5, Timestamp: ts}
}

func waitFor(t *testing.T, cond func() bool, within time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), msg)
}

func TestSession_EntryNotifiesAndExitCancelsEscalation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Second, maxRiskZone())
	t0 := time.Now()

	violations, err := f.session.Evaluate(ctx, insideSample(t0))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, geofence.Entered, violations[0].Kind)

	notifications := f.sink.notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, alerting.SeverityDanger, notifications[0].Severity)

	status, err := f.session.ZoneStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status["zone-1"])

	violations, err = f.session.Evaluate(ctx, outsideSample(t0.Add(time.Second)))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, geofence.Exited, violations[0].Kind)

	// Exit disarms the escalation timer: no auto-escalation ever lands.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.reporter.byType(reporting.TypeAutoEscalation))

	var types []events.Type
	for _, e := range f.sinkMem.Events() {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, events.TypeZoneEntered)
	assert.Contains(t, types, events.TypeZoneExited)
	assert.Contains(t, types, events.TypeEscalationArmed)
	assert.Contains(t, types, events.TypeEscalationCancelled)
}

func TestSession_EscalationFiresWithLastKnownLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30*time.Millisecond, maxRiskZone())

	_, err := f.session.Evaluate(ctx, insideSample(time.Now()))
	require.NoError(t, err)

	waitFor(t, func() bool { return len(f.reporter.byType(reporting.TypeAutoEscalation)) == 1 },
		time.Second, "escalation should fire after the delay")

	incident := f.reporter.byType(reporting.TypeAutoEscalation)[0]
	assert.Equal(t, 5.0, incident.Location.Latitude)
	assert.Equal(t, 5.0, incident.Location.Longitude)
	assert.Contains(t, incident.Description, `"Border Strip"`)
}

func TestSession_PanicSupersedesArmedEscalation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 40*time.Millisecond, maxRiskZone())

	_, err := f.session.Evaluate(ctx, insideSample(time.Now()))
	require.NoError(t, err)

	require.NoError(t, f.session.StartPanic(ctx, sos.ModeDelayed, 30))
	assert.Equal(t, sos.StateCountdown, f.session.PanicStatus().State)

	// The armed escalation was disarmed by the panic press.
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, f.reporter.byType(reporting.TypeAutoEscalation))

	require.NoError(t, f.session.CancelPanic(ctx))
	assert.Equal(t, sos.StateIdle, f.session.PanicStatus().State)
}

func TestSession_EscalationSuppressedWhilePanicActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 30*time.Millisecond, maxRiskZone())

	require.NoError(t, f.session.StartPanic(ctx, sos.ModeDelayed, 60))

	// Entering a maximum-risk zone during a panic countdown must not arm the
	// automatic timer; the user is already handling the emergency.
	_, err := f.session.Evaluate(ctx, insideSample(time.Now()))
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, f.reporter.byType(reporting.TypeAutoEscalation))

	require.NoError(t, f.session.CancelPanic(ctx))
}

func TestSession_PanicUsesLastSampleLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Second, maxRiskZone())

	_, err := f.session.Evaluate(ctx, outsideSample(time.Now()))
	require.NoError(t, err)

	require.NoError(t, f.session.StartPanic(ctx, sos.ModeImmediate, 0))

	panics := f.reporter.byType(reporting.TypePanic)
	require.Len(t, panics, 1)
	assert.Equal(t, 20.0, panics[0].Location.Latitude)
}

func TestSession_PanicBeforeFirstFixFallsBackToZeroLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Second, maxRiskZone())

	require.NoError(t, f.session.StartPanic(ctx, sos.ModeImmediate, 0))

	panics := f.reporter.byType(reporting.TypePanic)
	require.Len(t, panics, 1)
	assert.Equal(t, reporting.Location{}, panics[0].Location)
}

func TestSession_QuickReportFlowsThroughReporter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Second, maxRiskZone())

	_, err := f.session.Evaluate(ctx, outsideSample(time.Now()))
	require.NoError(t, err)

	ack, err := f.session.QuickReport(ctx, reporting.TypeWildlife)
	require.NoError(t, err)
	assert.NotEmpty(t, ack.IncidentID)

	reports := f.reporter.byType(reporting.TypeWildlife)
	require.Len(t, reports, 1)
	assert.Equal(t, "wildlife emergency reported by user", reports[0].Description)
}

func TestSession_RemovedZoneDoesNotProducePhantomExit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10*time.Second, maxRiskZone())
	// A zero refresh interval makes every sample refetch the catalog.
	f.session.cache = zones.NewCache(f.repo, 10, 0)
	t0 := time.Now()

	_, err := f.session.Evaluate(ctx, insideSample(t0))
	require.NoError(t, err)

	// Upstream stops serving the zone.
	f.repo.mu.Lock()
	f.repo.zones = nil
	f.repo.mu.Unlock()

	violations, err := f.session.Evaluate(ctx, insideSample(t0.Add(time.Second)))
	require.NoError(t, err)
	assert.Empty(t, violations, "a zone leaving the catalog is pruned, not exited")

	status, err := f.session.ZoneStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, status)
}

type flakyMembershipStore struct {
	*geofence.InMemoryMembershipStore
	failZone  string
	failsLeft int
}

func (s *flakyMembershipStore) SetInside(ctx context.Context, touristID, zoneID string, inside bool) error {
	if zoneID == s.failZone && s.failsLeft > 0 {
		s.failsLeft--
		return errors.New("write refused")
	}
	return s.InMemoryMembershipStore.SetInside(ctx, touristID, zoneID, inside)
}

func TestSession_CommittedViolationsDispatchedDespiteWriteFailure(t *testing.T) {
	ctx := context.Background()
	repo := &stubRepository{zones: []geofence.RiskZone{
		maxRiskZone(),
		{
			ID:        "zone-2",
			Name:      "Buffer Belt",
			Type:      geofence.ZoneWildlife,
			Boundary:  []geofence.Ring{{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 20}, {Lon: 20, Lat: 20}, {Lon: 20, Lat: 0}}},
			RiskLevel: 3,
		},
	}}
	sink := &capturingSink{}
	sinkMem := events.NewMemorySink()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := New("tourist-1", Deps{
		Repository: repo,
		Membership: &flakyMembershipStore{
			InMemoryMembershipStore: geofence.NewInMemoryMembershipStore(),
			failZone:                "zone-2",
			failsLeft:               1,
		},
		Sink:                sink,
		Reporter:            &capturingReporter{},
		Publisher:           events.NewPublisher(sinkMem, log),
		Logger:              log,
		ZoneRadiusKm:        10,
		ZoneRefreshInterval: time.Minute,
		EscalationDelay:     10 * time.Second,
		CountdownTick:       10 * time.Millisecond,
	})

	violations, err := s.Evaluate(ctx, insideSample(time.Now()))
	require.Error(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "zone-1", violations[0].Zone.ID)

	// The committed entry is notified and emitted even though the batch failed.
	notifications := sink.notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "zone-1", notifications[0].ZoneID)

	var sawEntry bool
	for _, e := range sinkMem.Events() {
		if e.Type == events.TypeZoneEntered && e.ZoneID == "zone-1" {
			sawEntry = true
		}
	}
	assert.True(t, sawEntry)
}

func TestManager_SessionsAreIsolatedPerTourist(t *testing.T) {
	ctx := context.Background()
	repo := &stubRepository{zones: []geofence.RiskZone{maxRiskZone()}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := NewManager(Deps{
		Repository:          repo,
		Membership:          geofence.NewInMemoryMembershipStore(),
		Sink:                &capturingSink{},
		Reporter:            &capturingReporter{},
		Logger:              log,
		ZoneRadiusKm:        10,
		ZoneRefreshInterval: time.Minute,
		EscalationDelay:     10 * time.Second,
		CountdownTick:       10 * time.Millisecond,
	})

	_, err := manager.Evaluate(ctx, "tourist-1", insideSample(time.Now()))
	require.NoError(t, err)

	status1, err := manager.ZoneStatus(ctx, "tourist-1")
	require.NoError(t, err)
	assert.True(t, status1["zone-1"])

	status2, err := manager.ZoneStatus(ctx, "tourist-2")
	require.NoError(t, err)
	assert.Empty(t, status2)
}
