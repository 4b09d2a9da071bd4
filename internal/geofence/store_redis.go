package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var membershipLookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "trailguard_membership_lookup_duration_ms",
	Help:    "Latency of redis membership lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const membershipKeyPrefix = "trailguard:membership:"

// membershipTTL expires abandoned sessions; every write refreshes it.
const membershipTTL = 24 * time.Hour

// RedisMembershipStore shares membership state across instances. One hash per
// tourist, field per zone ID; only inside zones are stored.
type RedisMembershipStore struct {
	client *redis.Client
}

func NewRedisMembershipStore(client *redis.Client) *RedisMembershipStore {
	return &RedisMembershipStore{client: client}
}

func membershipKey(touristID string) string {
	return membershipKeyPrefix + touristID
}

func (s *RedisMembershipStore) IsInside(ctx context.Context, touristID, zoneID string) (bool, error) {
	start := time.Now()
	defer func() {
		membershipLookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	inside, err := s.client.HExists(ctx, membershipKey(touristID), zoneID).Result()
	if err != nil {
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return inside, nil
}

func (s *RedisMembershipStore) SetInside(ctx context.Context, touristID, zoneID string, inside bool) error {
	key := membershipKey(touristID)
	if inside {
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, key, zoneID, "1")
		pipe.Expire(ctx, key, membershipTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("membership set: %w", err)
		}
		return nil
	}
	if err := s.client.HDel(ctx, key, zoneID).Err(); err != nil {
		return fmt.Errorf("membership clear: %w", err)
	}
	return nil
}

func (s *RedisMembershipStore) Snapshot(ctx context.Context, touristID string) (map[string]bool, error) {
	fields, err := s.client.HGetAll(ctx, membershipKey(touristID)).Result()
	if err != nil {
		return nil, fmt.Errorf("membership snapshot: %w", err)
	}
	snapshot := make(map[string]bool, len(fields))
	for zoneID := range fields {
		snapshot[zoneID] = true
	}
	return snapshot, nil
}

func (s *RedisMembershipStore) Prune(ctx context.Context, touristID string, keep map[string]struct{}) error {
	key := membershipKey(touristID)
	fields, err := s.client.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("membership prune: %w", err)
	}
	var stale []string
	for _, zoneID := range fields {
		if _, ok := keep[zoneID]; !ok {
			stale = append(stale, zoneID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, key, stale...).Err(); err != nil {
		return fmt.Errorf("membership prune: %w", err)
	}
	return nil
}
