// Package overlap measures temporal concurrency and spatial overlap of events.
package overlap

import (
	"sort"
	"time"

	"github.com/okian/fixturedensity/internal/domain/model"
)

const (
	// DefaultMargin is the proximity margin used for point events whose true
	// duration is a guess.
	DefaultMargin = 2 * time.Hour
	// DefaultRadiusKm applies to anchors supplied without a radius.
	DefaultRadiusKm = 50.0
)

// Overlaps reports whether two half-open windows intersect.
// Touching endpoints do not overlap.
func Overlaps(a, b model.TimeWindow) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Features are the raw counts one scope contributes to a risk score.
type Features struct {
	PeakConcurrent int `json:"peakConcurrent"`
	TimeOverlap    int `json:"timeOverlap"`
	SpatialOverlap int `json:"spatialOverlap"`
}

// Detector computes overlap measures. It holds no mutable state and is safe
// for concurrent use.
type Detector struct {
	margin          time.Duration
	defaultRadiusKm float64
}

// New creates a Detector with a two hour margin and a 50 km default radius.
func New(opts ...Option) *Detector {
	d := &Detector{margin: DefaultMargin, defaultRadiusKm: DefaultRadiusKm}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Margin returns the configured proximity margin.
func (d *Detector) Margin() time.Duration { return d.margin }

// Measure computes all three measures for one scope.
func (d *Detector) Measure(events []model.Event, filter SpatialFilter) Features {
	counts := d.Concurrency(events)
	f := Features{SpatialOverlap: d.SpatialCount(events, filter)}
	for _, c := range counts {
		if c > f.PeakConcurrent {
			f.PeakConcurrent = c
		}
		if c > 0 {
			f.TimeOverlap++
		}
	}
	return f
}

// PeakConcurrent returns the largest number of other events overlapping any
// single event's widened window.
func (d *Detector) PeakConcurrent(events []model.Event) int {
	peak := 0
	for _, c := range d.Concurrency(events) {
		if c > peak {
			peak = c
		}
	}
	return peak
}

// TimeOverlap returns how many events overlap at least one other event
// under the proximity margin.
func (d *Detector) TimeOverlap(events []model.Event) int {
	n := 0
	for _, c := range d.Concurrency(events) {
		if c > 0 {
			n++
		}
	}
	return n
}

// Concurrency returns, for each event, the number of other events whose window
// overlaps its window widened by the margin. Runs in O(n log n).
func (d *Detector) Concurrency(events []model.Event) []int {
	n := len(events)
	out := make([]int, n)
	if n < 2 {
		return out
	}
	starts := make([]time.Time, n)
	ends := make([]time.Time, n)
	for i, ev := range events {
		starts[i] = ev.Start
		ends[i] = ev.End
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	sort.Slice(ends, func(i, j int) bool { return ends[i].Before(ends[j]) })

	for i, ev := range events {
		w := ev.Window().Widen(d.margin)
		if !w.Start.Before(w.End) {
			out[i] = d.scan(events, i, w)
			continue
		}
		// #{start < w.End} - #{end <= w.Start}; the second set is contained
		// in the first because every window has end >= start.
		startedBefore := sort.Search(n, func(k int) bool { return !starts[k].Before(w.End) })
		endedBefore := sort.Search(n, func(k int) bool { return ends[k].After(w.Start) })
		c := startedBefore - endedBefore
		if Overlaps(w, ev.Window()) {
			c--
		}
		out[i] = c
	}
	return out
}

// scan handles zero-length widened windows by direct comparison.
func (d *Detector) scan(events []model.Event, self int, w model.TimeWindow) int {
	c := 0
	for j, other := range events {
		if j != self && Overlaps(w, other.Window()) {
			c++
		}
	}
	return c
}
