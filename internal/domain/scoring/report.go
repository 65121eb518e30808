package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/fixturedensity/internal/domain/bucket"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/types"
)

// GroupBy selects the event attribute congestion reports are grouped on.
type GroupBy string

const (
	GroupNone   GroupBy = ""
	GroupVenue  GroupBy = "venue"
	GroupRegion GroupBy = "region"
	GroupCity   GroupBy = "city"
	GroupSport  GroupBy = "sport"
)

// Unassigned labels events lacking the grouping attribute.
const Unassigned = "unassigned"

// ParseGroupBy accepts "", venue, region, city or sport.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupNone, GroupVenue, GroupRegion, GroupCity, GroupSport:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroup, s)
}

// CongestionReport computes the Congestion Index over events. Active days
// and weekend membership use the local date of each start in loc.
func CongestionReport(events []model.Event, loc *time.Location) types.CongestionReport {
	days := make(map[string]struct{})
	weekend := 0
	for _, ev := range events {
		days[bucket.DayKey(ev.Start, loc)] = struct{}{}
		if bucket.IsWeekend(ev.Start, loc) {
			weekend++
		}
	}
	c := Congestion(CongestionInput{TotalCount: len(events), ActiveDays: len(days), WeekendCount: weekend})
	return types.CongestionReport{
		TotalCount:      len(events),
		ActiveDays:      len(days),
		AvgPerDay:       c.AvgPerDay,
		WeekendShare:    c.WeekendShare,
		CongestionScore: c.Score,
		Band:            c.Band,
	}
}

// GroupCongestion returns one report per group, most congested first.
// GroupNone yields a single ungrouped report.
func GroupCongestion(events []model.Event, loc *time.Location, by GroupBy) []types.CongestionReport {
	if by == GroupNone {
		return []types.CongestionReport{CongestionReport(events, loc)}
	}
	groups := make(map[string][]model.Event)
	for _, ev := range events {
		k := groupKey(ev, by)
		groups[k] = append(groups[k], ev)
	}
	out := make([]types.CongestionReport, 0, len(groups))
	for k, evs := range groups {
		r := CongestionReport(evs, loc)
		r.Group = k
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CongestionScore != out[j].CongestionScore {
			return out[i].CongestionScore > out[j].CongestionScore
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func groupKey(ev model.Event, by GroupBy) string {
	var k string
	switch by {
	case GroupVenue:
		k = ev.Venue
	case GroupRegion:
		k = ev.Region
	case GroupCity:
		k = ev.City
	case GroupSport:
		k = ev.Sport
	}
	if k == "" {
		return Unassigned
	}
	return k
}

// OverlapReport buckets events and computes the Overlap Index over the buckets.
func OverlapReport(events []model.Event, loc *time.Location, g bucket.Granularity) (types.OverlapReport, error) {
	h, err := bucket.Build(events, loc, g)
	if err != nil {
		return types.OverlapReport{}, err
	}
	ordered := h.Ordered()
	buckets := make([]types.Bucket, len(ordered))
	counts := make([]int, len(ordered))
	for i, b := range ordered {
		buckets[i] = types.Bucket{Key: b.Key, Count: b.Count}
		counts[i] = b.Count
	}
	o := OverlapIndex(OverlapInput{Counts: counts})
	return types.OverlapReport{
		Granularity:  string(g),
		Buckets:      buckets,
		Total:        h.Total,
		PeakBucket:   h.PeakKey,
		PeakShare:    h.PeakShare,
		OverlapIndex: o.Index,
		Level:        o.Level,
	}, nil
}
