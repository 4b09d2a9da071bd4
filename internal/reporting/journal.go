package reporting

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one journaled submission attempt, successful or not.
type Entry struct {
	Incident   Incident
	Submitted  bool
	Error      string
	RecordedAt time.Time
}

// Journal records every incident submission for the dashboard side.
// Recording is best effort; journal failures never block a report.
type Journal interface {
	Record(ctx context.Context, incident Incident, submitErr error) error
	ListByTourist(ctx context.Context, touristID string) ([]Entry, error)
}

// JournaledReporter decorates a Reporter with best-effort journaling.
type JournaledReporter struct {
	next    Reporter
	journal Journal
	logger  *slog.Logger
}

func NewJournaledReporter(next Reporter, journal Journal, logger *slog.Logger) *JournaledReporter {
	return &JournaledReporter{next: next, journal: journal, logger: logger}
}

func (r *JournaledReporter) Submit(ctx context.Context, incident Incident) (Ack, error) {
	ack, err := r.next.Submit(ctx, incident)
	if jErr := r.journal.Record(ctx, incident, err); jErr != nil {
		r.logger.WarnContext(ctx, "incident journal write failed",
			"incident_id", incident.ID, "error", jErr)
	}
	return ack, err
}
