package zones

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailguard/internal/geofence"
	dErrors "trailguard/pkg/domain-errors"
	"trailguard/pkg/platform/circuit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPRepository_QueryNearby(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/location/nearby-zones", r.URL.Path)
		gotQuery = map[string]string{
			"lat":    r.URL.Query().Get("lat"),
			"lng":    r.URL.Query().Get("lng"),
			"radius": r.URL.Query().Get("radius"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"zones": []map[string]any{{
				"id":        "zone-1",
				"name":      "Nathula Pass",
				"zone_type": "weather",
				"coordinates": map[string]any{
					"type": "Polygon",
					"coordinates": [][][]float64{
						{{88.0, 27.0}, {88.0, 27.5}, {88.5, 27.5}, {88.5, 27.0}},
					},
				},
				"risk_level":    4,
				"active_alerts": map[string]any{"message": "Blizzard warning"},
			}},
		})
	}))
	defer server.Close()

	repo := NewHTTPRepository(server.URL, discardLogger())
	zones, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)
	require.NoError(t, err)

	assert.Equal(t, "27.2", gotQuery["lat"])
	assert.Equal(t, "88.3", gotQuery["lng"])
	assert.Equal(t, "10", gotQuery["radius"])

	require.Len(t, zones, 1)
	zone := zones[0]
	assert.Equal(t, "zone-1", zone.ID)
	assert.Equal(t, geofence.ZoneWeather, zone.Type)
	assert.Equal(t, 4, zone.RiskLevel)
	require.NotNil(t, zone.ActiveAlert)
	assert.Equal(t, "Blizzard warning", zone.ActiveAlert.Message)
	require.Len(t, zone.Boundary, 1)
	require.Len(t, zone.OuterRing(), 4)
	assert.Equal(t, geofence.Point{Lon: 88.0, Lat: 27.0}, zone.OuterRing()[0])
}

func TestHTTPRepository_UpstreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := NewHTTPRepository(server.URL, discardLogger())
	_, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)

	var domainErr *dErrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, dErrors.CodeUnavailable, domainErr.Code)
}

func TestHTTPRepository_BreakerFailsFastAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := NewHTTPRepository(server.URL, discardLogger())
	for i := 0; i < 5; i++ {
		_, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)
		require.Error(t, err)
	}

	// The breaker is open now; the request never reaches the backend.
	before := hits.Load()
	_, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)

	var domainErr *dErrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, dErrors.CodeUnavailable, domainErr.Code)
	assert.Equal(t, before, hits.Load())
}

func TestHTTPRepository_RecoversAfterCooldown(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"zones": []map[string]any{{"id": "zone-1", "name": "Border Strip", "zone_type": "restricted", "risk_level": 5}},
		})
	}))
	defer server.Close()

	repo := NewHTTPRepository(server.URL, discardLogger())
	repo.breaker = circuit.New("zone-repository",
		circuit.WithCooldown(20*time.Millisecond), circuit.WithSuccessThreshold(1))

	for i := 0; i < 5; i++ {
		_, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)
		require.Error(t, err)
	}

	// The backend recovers while the circuit is open: still failing fast.
	healthy.Store(true)
	_, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)
	require.Error(t, err)

	// Once the cooldown expires the request reaches the backend and succeeds.
	time.Sleep(30 * time.Millisecond)
	zones, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.False(t, repo.breaker.IsOpen())
}

func TestHTTPRepository_SkipsShortVertices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"zones": []map[string]any{{
				"id":        "zone-1",
				"name":      "Broken",
				"zone_type": "restricted",
				"coordinates": map[string]any{
					"type": "Polygon",
					"coordinates": [][][]float64{
						{{88.0, 27.0}, {88.1}, {88.5, 27.5}, {88.5, 27.0}},
					},
				},
				"risk_level": 5,
			}},
		})
	}))
	defer server.Close()

	repo := NewHTTPRepository(server.URL, discardLogger())
	zones, err := repo.QueryNearby(context.Background(), 27.2, 88.3, 10)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Len(t, zones[0].OuterRing(), 3, "a truncated vertex is dropped, not mis-parsed")
}
