package overlap

import (
	"math"

	"github.com/okian/fixturedensity/internal/domain/model"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// SpatialFilter restricts events geographically. A zero filter is inactive
// and matches every event. When both Bounds and Anchor are set an event must
// satisfy both.
type SpatialFilter struct {
	Bounds   *model.Bounds
	Anchor   *model.LatLng
	RadiusKm float64 // 0 means the detector's default radius
}

// Active reports whether the filter constrains anything.
func (f SpatialFilter) Active() bool {
	return f.Bounds != nil || f.Anchor != nil
}

// SpatialCount returns the number of events matching filter, or len(events)
// when the filter is inactive. Events without a location never match an
// active filter.
func (d *Detector) SpatialCount(events []model.Event, f SpatialFilter) int {
	if !f.Active() {
		return len(events)
	}
	n := 0
	for _, ev := range events {
		if d.matches(ev, f) {
			n++
		}
	}
	return n
}

// Filter returns the events matching f. An inactive filter returns events as is.
func (d *Detector) Filter(events []model.Event, f SpatialFilter) []model.Event {
	if !f.Active() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if d.matches(ev, f) {
			out = append(out, ev)
		}
	}
	return out
}

func (d *Detector) matches(ev model.Event, f SpatialFilter) bool {
	if ev.Location == nil {
		return false
	}
	if f.Bounds != nil && !InBounds(*ev.Location, *f.Bounds) {
		return false
	}
	radius := f.RadiusKm
	if radius <= 0 {
		radius = d.defaultRadiusKm
	}
	return f.Anchor == nil || Haversine(*f.Anchor, *ev.Location) <= radius
}

// InBounds reports whether p lies inside b, edges included.
func InBounds(p model.LatLng, b model.Bounds) bool {
	if p.Lat < b.South || p.Lat > b.North {
		return false
	}
	if b.West <= b.East {
		return p.Lng >= b.West && p.Lng <= b.East
	}
	// crosses the antimeridian
	return p.Lng >= b.West || p.Lng <= b.East
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b model.LatLng) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
