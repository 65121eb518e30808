// Package model contains domain models passed between layers.
package model

import "time"

// Kind distinguishes events with an explicit end from events with only a start.
type Kind string

const (
	// KindPoint is an event with a start instant only; its end is inferred from the sport.
	KindPoint Kind = "point"
	// KindSession is an event with explicit start and end instants.
	KindSession Kind = "session"
)

// RawEvent is an untyped record as received from upstream feeds.
// Field names are unreliable; the normalizer resolves aliases.
type RawEvent map[string]any

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a rectangular geographic filter. West may exceed East for boxes
// crossing the antimeridian.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// TimeWindow is a half-open [Start, End) interval. End is never before Start.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Widen returns the window grown by margin on both sides.
func (w TimeWindow) Widen(margin time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(-margin), End: w.End.Add(margin)}
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Event is the canonical, immutable representation produced by the normalizer.
type Event struct {
	ID       string
	Start    time.Time
	End      time.Time
	Location *LatLng // nil when the record carried no usable coordinates
	Sport    string
	Kind     Kind
	Region   string
	City     string
	Venue    string
}

// Window returns the event's time window.
func (e Event) Window() TimeWindow {
	return TimeWindow{Start: e.Start, End: e.End}
}
