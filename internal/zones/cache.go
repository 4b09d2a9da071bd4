// Package zones caches the hazard zones for a tourist's vicinity. The cache
// is stale-but-available: a failed refresh keeps the previous zone set and
// surfaces the error for logging; the next sample retries.
package zones

import (
	"context"
	"sync"
	"time"

	"trailguard/internal/geofence"
)

// Repository serves nearby hazard polygons. Implemented over HTTP in
// production and stubbed in tests.
type Repository interface {
	QueryNearby(ctx context.Context, lat, lon, radiusKm float64) ([]geofence.RiskZone, error)
}

// Cache holds the most recently fetched zone set for one tourist session.
type Cache struct {
	repo     Repository
	radiusKm float64
	interval time.Duration

	mu          sync.RWMutex
	zones       []geofence.RiskZone
	lastRefresh time.Time
}

// NewCache builds a cache that refreshes at most once per interval. An
// interval of zero refreshes on every MaybeRefresh call.
func NewCache(repo Repository, radiusKm float64, interval time.Duration) *Cache {
	return &Cache{repo: repo, radiusKm: radiusKm, interval: interval}
}

// Zones returns the current snapshot. The slice is shared but zones are
// immutable once fetched.
func (c *Cache) Zones() []geofence.RiskZone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zones
}

// MaybeRefresh refreshes when the last successful refresh is older than the
// configured interval. Returns whether a refresh completed successfully. On
// failure the previous zone set is retained; the clock is not advanced, so
// the next call retries.
func (c *Cache) MaybeRefresh(ctx context.Context, lat, lon float64) (bool, error) {
	c.mu.RLock()
	fresh := !c.lastRefresh.IsZero() && time.Since(c.lastRefresh) < c.interval
	c.mu.RUnlock()
	if fresh {
		return false, nil
	}
	if err := c.Refresh(ctx, lat, lon); err != nil {
		return false, err
	}
	return true, nil
}

// Refresh fetches unconditionally, replacing the zone set wholesale on success.
func (c *Cache) Refresh(ctx context.Context, lat, lon float64) error {
	zones, err := c.repo.QueryNearby(ctx, lat, lon, c.radiusKm)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.zones = zones
	c.lastRefresh = time.Now()
	c.mu.Unlock()
	return nil
}

// ZoneIDs returns the current key set, used to prune stale memberships.
func (c *Cache) ZoneIDs() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make(map[string]struct{}, len(c.zones))
	for _, z := range c.zones {
		ids[z.ID] = struct{}{}
	}
	return ids
}
