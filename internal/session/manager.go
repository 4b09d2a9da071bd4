package session

import (
	"context"
	"sync"

	"trailguard/internal/geofence"
	"trailguard/internal/reporting"
	"trailguard/internal/sos"
)

// Manager creates sessions on demand and routes operations to them. It is the
// service the HTTP layer talks to.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// Session returns the tourist's pipeline, creating it on first use.
func (m *Manager) Session(touristID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[touristID]
	if !ok {
		s = New(touristID, m.deps)
		m.sessions[touristID] = s
	}
	return s
}

func (m *Manager) Evaluate(ctx context.Context, touristID string, sample geofence.Sample) ([]geofence.Violation, error) {
	return m.Session(touristID).Evaluate(ctx, sample)
}

func (m *Manager) ZoneStatus(ctx context.Context, touristID string) (map[string]bool, error) {
	return m.Session(touristID).ZoneStatus(ctx)
}

func (m *Manager) StartPanic(ctx context.Context, touristID string, mode sos.Mode, delaySeconds int) error {
	return m.Session(touristID).StartPanic(ctx, mode, delaySeconds)
}

func (m *Manager) CancelPanic(ctx context.Context, touristID string) error {
	return m.Session(touristID).CancelPanic(ctx)
}

func (m *Manager) QuickReport(ctx context.Context, touristID string, incidentType reporting.IncidentType) (reporting.Ack, error) {
	return m.Session(touristID).QuickReport(ctx, incidentType)
}
