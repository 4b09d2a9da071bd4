package reporting

import (
	"context"
	"sync"
	"time"
)

// InMemoryJournal keeps journal entries for a single process.
type InMemoryJournal struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewInMemoryJournal() *InMemoryJournal {
	return &InMemoryJournal{entries: make(map[string][]Entry)}
}

func (j *InMemoryJournal) Record(_ context.Context, incident Incident, submitErr error) error {
	entry := Entry{
		Incident:   incident,
		Submitted:  submitErr == nil,
		RecordedAt: time.Now(),
	}
	if submitErr != nil {
		entry.Error = submitErr.Error()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[incident.TouristID] = append(j.entries[incident.TouristID], entry)
	return nil
}

func (j *InMemoryJournal) ListByTourist(_ context.Context, touristID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]Entry{}, j.entries[touristID]...), nil
}
