package geofence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trailguard/internal/platform/metrics"
)

// Evaluator computes zone membership transitions for position samples.
// Samples for a given tourist must be evaluated one at a time; the session
// pipeline serializes them.
type Evaluator struct {
	store   MembershipStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewEvaluator(store MembershipStore, logger *slog.Logger, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		store:    store,
		logger:   logger,
		metrics:  m,
		lastSeen: make(map[string]time.Time),
	}
}

type transition struct {
	zone   RiskZone
	inside bool
}

// Evaluate classifies the sample against every zone and returns one violation
// per membership change. Re-evaluating an unchanged position yields zero
// violations. Samples older than the last evaluated timestamp for the tourist
// are dropped. Degenerate rings (<3 vertices) are skipped and logged, never
// fatal. Each violation is returned only after its membership write committed;
// on a write failure mid-batch the committed violations come back with the
// error, and the uncommitted transitions re-fire on the next sample.
func (e *Evaluator) Evaluate(ctx context.Context, touristID string, sample Sample, zones []RiskZone) ([]Violation, error) {
	if e.dropOutOfOrder(touristID, sample) {
		return nil, nil
	}

	point := Point{Lon: sample.Longitude, Lat: sample.Latitude}
	var changes []transition

	for _, zone := range zones {
		ring := zone.OuterRing()
		if len(ring) < 3 {
			if e.metrics != nil {
				e.metrics.DegenerateZonesSkipped.Inc()
			}
			e.logger.WarnContext(ctx, "skipping zone with degenerate boundary",
				"zone_id", zone.ID, "vertices", len(ring))
			continue
		}

		inside := pointInRing(point, ring)
		was, err := e.store.IsInside(ctx, touristID, zone.ID)
		if err != nil {
			return nil, fmt.Errorf("membership for zone %s: %w", zone.ID, err)
		}
		if inside != was {
			changes = append(changes, transition{zone: zone, inside: inside})
		}
	}

	violations := make([]Violation, 0, len(changes))
	for _, ch := range changes {
		if err := e.store.SetInside(ctx, touristID, ch.zone.ID, ch.inside); err != nil {
			// Transitions committed before the failure are returned with the
			// error so the caller still dispatches them. The failed one was
			// never recorded, so the next sample re-detects it.
			return violations, fmt.Errorf("record membership for zone %s: %w", ch.zone.ID, err)
		}
		kind := Exited
		if ch.inside {
			kind = Entered
		}
		violations = append(violations, Violation{Zone: ch.zone, Kind: kind, Timestamp: sample.Timestamp})
		if e.metrics != nil {
			e.metrics.ViolationsTotal.WithLabelValues(string(kind)).Inc()
		}
	}

	return violations, nil
}

// dropOutOfOrder enforces the arrival-order policy: samples older than the
// last evaluated timestamp are discarded; equal timestamps pass through
// (harmless under idempotence).
func (e *Evaluator) dropOutOfOrder(touristID string, sample Sample) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.lastSeen[touristID]; ok && sample.Timestamp.Before(last) {
		if e.metrics != nil {
			e.metrics.SamplesDropped.Inc()
		}
		e.logger.Debug("dropping out-of-order sample",
			"tourist_id", touristID, "sample_ts", sample.Timestamp, "last_ts", last)
		return true
	}
	e.lastSeen[touristID] = sample.Timestamp
	return false
}
