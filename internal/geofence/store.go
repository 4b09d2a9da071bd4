package geofence

import "context"

// MembershipStore records per-(tourist, zone) inside/outside state for the
// current session. Implementations: memory (default, single instance) and
// redis (shared across instances).
type MembershipStore interface {
	// IsInside returns the recorded membership; absent entries are outside.
	IsInside(ctx context.Context, touristID, zoneID string) (bool, error)

	// SetInside records membership for a zone.
	SetInside(ctx context.Context, touristID, zoneID string, inside bool) error

	// Snapshot returns a copy of the tourist's membership map.
	Snapshot(ctx context.Context, touristID string) (map[string]bool, error)

	// Prune drops entries for zones no longer in range so a cache refresh
	// never produces phantom exits. keep holds the surviving zone IDs.
	Prune(ctx context.Context, touristID string, keep map[string]struct{}) error
}
