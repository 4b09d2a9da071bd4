package reporting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trailguard/pkg/domain-errors"
	"trailguard/pkg/platform/circuit"
)

func TestHTTPReporter_RoutesByIncidentType(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(Ack{IncidentID: "backend-1", ReceivedAt: time.Now()})
	}))
	defer server.Close()

	reporter := NewHTTPReporter(server.URL, discardLogger())

	panicIncident := testIncident()
	_, err := reporter.Submit(context.Background(), panicIncident)
	require.NoError(t, err)

	quickIncident := testIncident()
	quickIncident.Type = TypeWildlife
	_, err = reporter.Submit(context.Background(), quickIncident)
	require.NoError(t, err)

	assert.Equal(t, []string{"/emergency/panic", "/emergency/report"}, paths)
}

func TestHTTPReporter_SendsIncidentPayload(t *testing.T) {
	var got Incident
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Ack{IncidentID: got.ID})
	}))
	defer server.Close()

	reporter := NewHTTPReporter(server.URL, discardLogger())
	incident := testIncident()
	ack, err := reporter.Submit(context.Background(), incident)
	require.NoError(t, err)

	assert.Equal(t, incident.ID, ack.IncidentID)
	assert.Equal(t, incident.TouristID, got.TouristID)
	assert.Equal(t, incident.Location, got.Location)
}

func TestHTTPReporter_MalformedAckIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("accepted, thanks"))
	}))
	defer server.Close()

	reporter := NewHTTPReporter(server.URL, discardLogger())
	incident := testIncident()
	ack, err := reporter.Submit(context.Background(), incident)

	require.NoError(t, err, "the report landed; a bad receipt must not alarm the user")
	assert.Equal(t, incident.ID, ack.IncidentID, "a local ack is synthesized")
}

func TestHTTPReporter_ErrorStatusIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	reporter := NewHTTPReporter(server.URL, discardLogger())
	_, err := reporter.Submit(context.Background(), testIncident())

	var domainErr *dErrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, dErrors.CodeUnavailable, domainErr.Code)
}

func TestHTTPReporter_RecoversAfterCooldown(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(Ack{IncidentID: "backend-1", ReceivedAt: time.Now()})
	}))
	defer server.Close()

	reporter := NewHTTPReporter(server.URL, discardLogger())
	reporter.breaker = circuit.New("incident-backend",
		circuit.WithCooldown(20*time.Millisecond), circuit.WithSuccessThreshold(1))

	for i := 0; i < 5; i++ {
		_, err := reporter.Submit(context.Background(), testIncident())
		require.Error(t, err)
	}

	// Manual retries while the cooldown runs still fail fast.
	healthy.Store(true)
	_, err := reporter.Submit(context.Background(), testIncident())
	require.Error(t, err)

	// After the cooldown a retry reaches the recovered backend.
	time.Sleep(30 * time.Millisecond)
	ack, err := reporter.Submit(context.Background(), testIncident())
	require.NoError(t, err)
	assert.Equal(t, "backend-1", ack.IncidentID)
	assert.False(t, reporter.breaker.IsOpen())
}

func TestHTTPReporter_BreakerFailsFastAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	reporter := NewHTTPReporter(server.URL, discardLogger())
	for i := 0; i < 5; i++ {
		_, err := reporter.Submit(context.Background(), testIncident())
		require.Error(t, err)
	}

	server.Close()
	_, err := reporter.Submit(context.Background(), testIncident())

	var domainErr *dErrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, dErrors.CodeUnavailable, domainErr.Code)
	assert.Contains(t, domainErr.Message, "circuit open")
}
