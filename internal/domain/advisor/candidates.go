package advisor

import (
	"sort"
	"time"

	"github.com/okian/fixturedensity/internal/domain/bucket"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/overlap"
)

// KindOf reports whether key names a date or a venue.
func KindOf(key string, loc *time.Location) model.CandidateKind {
	if _, err := time.ParseInLocation(model.DateLayout, key, loc); err == nil {
		return model.CandidateDate
	}
	return model.CandidateVenue
}

// Window returns the decision window [local midnight of now, +days).
func Window(now time.Time, days int, loc *time.Location) model.TimeWindow {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return model.TimeWindow{Start: start, End: start.AddDate(0, 0, days)}
}

// Candidates lists every candidate of the target's kind in the decision
// window, always including the target.
func Candidates(target model.Candidate, events []model.Event, now time.Time, days int, loc *time.Location) []model.Candidate {
	var keys []string
	switch target.Kind {
	case model.CandidateDate:
		keys = bucket.DateRange(now, days, loc)
	default:
		w := Window(now, days, loc)
		seen := make(map[string]struct{})
		for _, ev := range events {
			if ev.Venue == "" || !overlap.Overlaps(ev.Window(), w) {
				continue
			}
			if _, ok := seen[ev.Venue]; !ok {
				seen[ev.Venue] = struct{}{}
				keys = append(keys, ev.Venue)
			}
		}
		sort.Strings(keys)
	}

	out := make([]model.Candidate, 0, len(keys)+1)
	found := false
	for _, k := range keys {
		if k == target.Key {
			found = true
		}
		out = append(out, model.Candidate{Kind: target.Kind, Key: k})
	}
	if !found {
		out = append(out, target)
	}
	return out
}

// Scope returns the events that belong to candidate c.
//   - date: events whose window overlaps the candidate's local day
//   - venue: events at that venue overlapping the decision window
func Scope(c model.Candidate, events []model.Event, decision model.TimeWindow, loc *time.Location) []model.Event {
	var w model.TimeWindow
	switch c.Kind {
	case model.CandidateDate:
		day, err := bucket.DayWindow(c.Key, loc)
		if err != nil {
			return nil
		}
		w = day
	default:
		w = decision
	}
	var out []model.Event
	for _, ev := range events {
		if c.Kind == model.CandidateVenue && ev.Venue != c.Key {
			continue
		}
		if overlap.Overlaps(ev.Window(), w) {
			out = append(out, ev)
		}
	}
	return out
}
