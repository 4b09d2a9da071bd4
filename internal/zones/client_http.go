package zones

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trailguard/internal/geofence"
	dErrors "trailguard/pkg/domain-errors"
	"trailguard/pkg/platform/circuit"
)

// HTTPRepository queries the zone backend's nearby-zones endpoint. A circuit
// breaker fails fast while the backend is down so sample processing is never
// held up by connect timeouts.
type HTTPRepository struct {
	baseURL string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewHTTPRepository(baseURL string, logger *slog.Logger) *HTTPRepository {
	return &HTTPRepository{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("zone-repository"),
		logger:  logger,
	}
}

// zoneDTO mirrors the backend wire format (GeoJSON-style polygon, lon/lat
// vertex order).
type zoneDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ZoneType    string `json:"zone_type"`
	Coordinates struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	} `json:"coordinates"`
	RiskLevel    int                 `json:"risk_level"`
	ActiveAlerts *geofence.ZoneAlert `json:"active_alerts,omitempty"`
	Description  string              `json:"description,omitempty"`
}

type nearbyZonesResponse struct {
	Zones []zoneDTO `json:"zones"`
}

func (r *HTTPRepository) QueryNearby(ctx context.Context, lat, lon, radiusKm float64) ([]geofence.RiskZone, error) {
	if r.breaker.IsOpen() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "zone repository circuit open")
	}

	endpoint := fmt.Sprintf("%s/location/nearby-zones?%s", r.baseURL, url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"radius": {strconv.FormatFloat(radiusKm, 'f', -1, 64)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build nearby-zones request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.recordFailure(ctx)
		return nil, fmt.Errorf("query nearby zones: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.recordFailure(ctx)
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("zone repository returned status %d", resp.StatusCode))
	}

	var body nearbyZonesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.recordFailure(ctx)
		return nil, fmt.Errorf("decode nearby zones: %w", err)
	}
	r.recordSuccess(ctx)

	zones := make([]geofence.RiskZone, 0, len(body.Zones))
	for _, dto := range body.Zones {
		zones = append(zones, toRiskZone(dto))
	}
	return zones, nil
}

func toRiskZone(dto zoneDTO) geofence.RiskZone {
	boundary := make([]geofence.Ring, 0, len(dto.Coordinates.Coordinates))
	for _, rawRing := range dto.Coordinates.Coordinates {
		ring := make(geofence.Ring, 0, len(rawRing))
		for _, vertex := range rawRing {
			if len(vertex) < 2 {
				continue
			}
			ring = append(ring, geofence.Point{Lon: vertex[0], Lat: vertex[1]})
		}
		boundary = append(boundary, ring)
	}
	return geofence.RiskZone{
		ID:          dto.ID,
		Name:        dto.Name,
		Type:        geofence.ZoneType(dto.ZoneType),
		Boundary:    boundary,
		RiskLevel:   dto.RiskLevel,
		ActiveAlert: dto.ActiveAlerts,
		Description: dto.Description,
	}
}

func (r *HTTPRepository) recordFailure(ctx context.Context) {
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "zone repository circuit opened")
	}
}

func (r *HTTPRepository) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "zone repository circuit closed")
	}
}
