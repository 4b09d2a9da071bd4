package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS incident_journal (
	id            TEXT PRIMARY KEY,
	tourist_id    TEXT NOT NULL,
	incident_type TEXT NOT NULL,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	accuracy      DOUBLE PRECISION NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	submitted     BOOLEAN NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	occurred_at   TIMESTAMPTZ NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS incident_journal_tourist_idx ON incident_journal (tourist_id, recorded_at);
`

// PostgresJournal persists journal entries for the dashboard side.
type PostgresJournal struct {
	pool *pgxpool.Pool
}

func NewPostgresJournal(pool *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{pool: pool}
}

// EnsureSchema creates the journal table; safe to call on every start.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.pool.Exec(ctx, journalSchema); err != nil {
		return fmt.Errorf("ensure incident journal schema: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Record(ctx context.Context, incident Incident, submitErr error) error {
	submitted := submitErr == nil
	errText := ""
	if submitErr != nil {
		errText = submitErr.Error()
	}
	_, err := j.pool.Exec(ctx, `
		INSERT INTO incident_journal
			(id, tourist_id, incident_type, latitude, longitude, accuracy,
			 description, submitted, error, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		incident.ID, incident.TouristID, string(incident.Type),
		incident.Location.Latitude, incident.Location.Longitude, incident.Location.Accuracy,
		incident.Description, submitted, errText, incident.Timestamp, time.Now())
	if err != nil {
		return fmt.Errorf("record incident: %w", err)
	}
	return nil
}

func (j *PostgresJournal) ListByTourist(ctx context.Context, touristID string) ([]Entry, error) {
	rows, err := j.pool.Query(ctx, `
		SELECT id, incident_type, latitude, longitude, accuracy,
		       description, submitted, error, occurred_at, recorded_at
		FROM incident_journal
		WHERE tourist_id = $1
		ORDER BY recorded_at`, touristID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var incidentType string
		e.Incident.TouristID = touristID
		if err := rows.Scan(&e.Incident.ID, &incidentType,
			&e.Incident.Location.Latitude, &e.Incident.Location.Longitude, &e.Incident.Location.Accuracy,
			&e.Incident.Description, &e.Submitted, &e.Error,
			&e.Incident.Timestamp, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		e.Incident.Type = IncidentType(incidentType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
