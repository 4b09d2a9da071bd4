// Package geofence detects zone entry/exit transitions from a stream of
// position samples. Membership state is held per tourist and updated
// atomically with the violations returned for a sample.
package geofence

import "time"

// ZoneType classifies a hazard zone and drives notification severity.
type ZoneType string

const (
	ZoneWildlife   ZoneType = "wildlife"
	ZoneRestricted ZoneType = "restricted"
	ZoneWeather    ZoneType = "weather"
	ZoneGeological ZoneType = "geological"
)

// Point is a lon/lat vertex, in that order to match the wire format.
type Point struct {
	Lon float64
	Lat float64
}

// Ring is a closed polygon ring of lon/lat vertices.
type Ring []Point

// ZoneAlert is the structured advisory payload attached to weather zones.
type ZoneAlert struct {
	Message string `json:"message"`
}

// RiskZone is a hazard polygon with a severity rating 1..5. Zones are
// immutable once fetched; the cache replaces them wholesale on refresh.
// Only the outer ring (Boundary[0]) is evaluated; inner rings are carried
// but deliberately ignored.
type RiskZone struct {
	ID          string
	Name        string
	Type        ZoneType
	Boundary    []Ring
	RiskLevel   int
	ActiveAlert *ZoneAlert
	Description string
}

// OuterRing returns the evaluated ring, or nil when the boundary is empty.
func (z RiskZone) OuterRing() Ring {
	if len(z.Boundary) == 0 {
		return nil
	}
	return z.Boundary[0]
}

// ViolationKind is the direction of a boundary transition.
type ViolationKind string

const (
	Entered ViolationKind = "entered"
	Exited  ViolationKind = "exited"
)

// Violation is a detected transition relative to a risk zone. Produced,
// consumed, and discarded; never persisted.
type Violation struct {
	Zone      RiskZone
	Kind      ViolationKind
	Timestamp time.Time
}

// Sample is one position fix from the location stream. Timestamps are
// assumed monotonic per tourist; older-than-last-seen samples are dropped
// by the evaluator.
type Sample struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}
