package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	dErrors "trailguard/pkg/domain-errors"
	"trailguard/pkg/platform/circuit"
)

// HTTPReporter posts incidents to the emergency backend. Panic incidents use
// the dedicated panic endpoint; everything else goes through the general
// report endpoint, matching the backend's routing.
type HTTPReporter struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPReporter(baseURL string, logger *slog.Logger) *HTTPReporter {
	return &HTTPReporter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("incident-backend"),
		logger:  logger,
	}
}

func (r *HTTPReporter) Submit(ctx context.Context, incident Incident) (Ack, error) {
	if r.breaker.IsOpen() {
		return Ack{}, dErrors.New(dErrors.CodeUnavailable, "incident backend circuit open")
	}

	path := "/emergency/report"
	if incident.Type == TypePanic {
		path = "/emergency/panic"
	}

	payload, err := json.Marshal(incident)
	if err != nil {
		return Ack{}, fmt.Errorf("marshal incident: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Ack{}, fmt.Errorf("build incident request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.recordFailure(ctx)
		return Ack{}, fmt.Errorf("submit incident: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.recordFailure(ctx)
		return Ack{}, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("incident backend returned status %d", resp.StatusCode))
	}

	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		// The report was accepted; a malformed receipt should not look like
		// a submission failure to the caller.
		r.logger.WarnContext(ctx, "incident ack decode failed", "incident_id", incident.ID, "error", err)
		ack = Ack{IncidentID: incident.ID, ReceivedAt: time.Now()}
	}
	r.recordSuccess(ctx)
	return ack, nil
}

func (r *HTTPReporter) recordFailure(ctx context.Context) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "incident backend circuit opened")
	}
}

func (r *HTTPReporter) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "incident backend circuit closed")
	}
}
