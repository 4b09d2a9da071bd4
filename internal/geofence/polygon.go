package geofence

import "math"

// onSegmentEpsilon bounds the cross-product test for edge collinearity.
// Coordinates are degrees, so this is far below GPS accuracy.
const onSegmentEpsilon = 1e-12

// pointInRing classifies p against a closed ring using the even-odd
// (ray-casting) rule. Boundary convention: a point lying exactly on a ring
// edge is OUTSIDE. The explicit on-segment check runs first so the
// convention never depends on ray-cast edge cases.
func pointInRing(p Point, ring Ring) bool {
	if len(ring) < 3 {
		return false
	}

	for i := range ring {
		j := (i + len(ring) - 1) % len(ring)
		if onSegment(p, ring[j], ring[i]) {
			return false
		}
	}

	inside := false
	x, y := p.Lon, p.Lat
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// onSegment reports whether p lies on the segment ab.
func onSegment(p, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > onSegmentEpsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon) && p.Lon <= math.Max(a.Lon, b.Lon) &&
		p.Lat >= math.Min(a.Lat, b.Lat) && p.Lat <= math.Max(a.Lat, b.Lat)
}
