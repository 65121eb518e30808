// Package bucket groups events into fixed time buckets for a reference timezone.
//
// It is also the single home for the timezone-aware date math the engine
// needs: day keys, weekend detection, local day windows and date ranges.
package bucket

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/fixturedensity/internal/domain/model"
)

// Granularity selects how events are keyed.
type Granularity string

const (
	Hour    Granularity = "hour"    // hour of day, "00".."23"
	Day     Granularity = "day"     // local calendar date, 2006-01-02
	Month   Granularity = "month"   // local calendar month, 2006-01
	Weekday Granularity = "weekday" // local weekday name, Monday..Sunday
)

const monthLayout = "2006-01"

// ParseGranularity accepts hour, day, month or weekday (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Hour, Day, Month, Weekday:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Bucket is a (key, count) pair.
type Bucket struct {
	Key   string
	Count int
}

// Histogram holds disjoint, exhaustive buckets for one computation.
type Histogram struct {
	Granularity Granularity
	Counts      map[string]int
	Total       int
	PeakKey     string // key with max count; smallest key wins ties
	PeakCount   int
	PeakShare   int // round(PeakCount / Total * 100), 0 when Total is 0
}

// Build assigns every event to exactly one bucket using the wall-clock value
// of its start in loc.
func Build(events []model.Event, loc *time.Location, g Granularity) (Histogram, error) {
	if _, err := ParseGranularity(string(g)); err != nil {
		return Histogram{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	h := Histogram{Granularity: g, Counts: make(map[string]int)}
	for _, ev := range events {
		h.Counts[Key(ev.Start, loc, g)]++
		h.Total++
	}
	for _, b := range h.Ordered() {
		if b.Count > h.PeakCount {
			h.PeakKey = b.Key
			h.PeakCount = b.Count
		}
	}
	h.PeakShare = Share(h.PeakCount, h.Total)
	return h, nil
}

// Ordered returns the non-empty buckets in natural key order.
func (h Histogram) Ordered() []Bucket {
	out := make([]Bucket, 0, len(h.Counts))
	for k, c := range h.Counts {
		out = append(out, Bucket{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		return keyLess(h.Granularity, out[i].Key, out[j].Key)
	})
	return out
}

// Key returns the bucket key of t for granularity g.
func Key(t time.Time, loc *time.Location, g Granularity) string {
	local := t.In(loc)
	switch g {
	case Hour:
		return fmt.Sprintf("%02d", local.Hour())
	case Month:
		return local.Format(monthLayout)
	case Weekday:
		return local.Weekday().String()
	default:
		return local.Format(model.DateLayout)
	}
}

func keyLess(g Granularity, a, b string) bool {
	if g == Weekday {
		return weekdayIndex(a) < weekdayIndex(b)
	}
	return a < b
}

func weekdayIndex(name string) int {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return int(d)
		}
	}
	return int(time.Saturday) + 1
}

// Share returns round(part / total * 100), or 0 when total is 0.
func Share(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
