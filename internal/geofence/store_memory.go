package geofence

import (
	"context"
	"sync"
)

// InMemoryMembershipStore keeps membership state for a single process.
type InMemoryMembershipStore struct {
	mu          sync.RWMutex
	memberships map[string]map[string]bool
}

func NewInMemoryMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{memberships: make(map[string]map[string]bool)}
}

func (s *InMemoryMembershipStore) IsInside(_ context.Context, touristID, zoneID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memberships[touristID][zoneID], nil
}

func (s *InMemoryMembershipStore) SetInside(_ context.Context, touristID, zoneID string, inside bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	zones := s.memberships[touristID]
	if zones == nil {
		zones = make(map[string]bool)
		s.memberships[touristID] = zones
	}
	if inside {
		zones[zoneID] = true
	} else {
		// Outside is the default; deleting keeps snapshots tight.
		delete(zones, zoneID)
	}
	return nil
}

func (s *InMemoryMembershipStore) Snapshot(_ context.Context, touristID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]bool, len(s.memberships[touristID]))
	for zoneID, inside := range s.memberships[touristID] {
		snapshot[zoneID] = inside
	}
	return snapshot, nil
}

func (s *InMemoryMembershipStore) Prune(_ context.Context, touristID string, keep map[string]struct{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for zoneID := range s.memberships[touristID] {
		if _, ok := keep[zoneID]; !ok {
			delete(s.memberships[touristID], zoneID)
		}
	}
	return nil
}
