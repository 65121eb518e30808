// Package ics reads iCalendar feeds into raw event records for the normalizer.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/okian/fixturedensity/internal/domain/model"
)

// Extension properties some fixture feeds carry.
const (
	propRegion = "X-REGION"
	propCity   = "X-CITY"
	propSport  = "X-SPORT"
)

// Decode reads every VEVENT from r. Floating times are interpreted in loc.
// Events without a DTEND or DURATION become point events; the rest are
// sessions spanning DTSTART to their end.
func Decode(r io.Reader, loc *time.Location) ([]model.RawEvent, error) {
	if loc == nil {
		loc = time.UTC
	}
	dec := ical.NewDecoder(r)
	var out []model.RawEvent
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		for _, ev := range cal.Events() {
			out = append(out, toRaw(&ev, loc))
		}
	}
	return out, nil
}

func toRaw(ev *ical.Event, loc *time.Location) model.RawEvent {
	raw := model.RawEvent{}
	if uid, err := ev.Props.Text(ical.PropUID); err == nil && uid != "" {
		raw["id"] = uid
	}
	if s, err := ev.Props.Text(ical.PropSummary); err == nil && s != "" {
		raw["title"] = s
	}
	if s, err := ev.Props.Text(ical.PropLocation); err == nil && s != "" {
		raw["venue"] = s
	}
	if s := sport(ev); s != "" {
		raw["sport"] = s
	}
	if s, err := ev.Props.Text(propRegion); err == nil && s != "" {
		raw["region"] = s
	}
	if s, err := ev.Props.Text(propCity); err == nil && s != "" {
		raw["city"] = s
	}
	if lat, lng, ok := geo(ev); ok {
		raw["lat"] = lat
		raw["lng"] = lng
	}

	// A record with an unusable DTSTART is passed through without a date so
	// the normalizer skips and reports it like any other invalid record.
	start, err := ev.DateTimeStart(loc)
	if err != nil || start.IsZero() {
		return raw
	}
	if ev.Props.Get(ical.PropDateTimeEnd) == nil && ev.Props.Get(ical.PropDuration) == nil && !allDay(ev) {
		raw["kind"] = string(model.KindPoint)
		raw["date"] = start.Format(time.RFC3339Nano)
		return raw
	}
	raw["kind"] = string(model.KindSession)
	raw["sessionStart"] = start.Format(time.RFC3339Nano)
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		// The unparsable end is kept verbatim so the normalizer rejects the
		// session on its own instead of failing the feed.
		if p := ev.Props.Get(ical.PropDateTimeEnd); p != nil {
			raw["sessionEnd"] = p.Value
		}
		return raw
	}
	raw["sessionEnd"] = end.Format(time.RFC3339Nano)
	return raw
}

func allDay(ev *ical.Event) bool {
	p := ev.Props.Get(ical.PropDateTimeStart)
	return p != nil && p.ValueType() == ical.ValueDate
}

// sport prefers X-SPORT and falls back to the first category.
func sport(ev *ical.Event) string {
	if s, err := ev.Props.Text(propSport); err == nil && s != "" {
		return s
	}
	p := ev.Props.Get(ical.PropCategories)
	if p == nil {
		return ""
	}
	first, _, _ := strings.Cut(p.Value, ",")
	return strings.TrimSpace(first)
}

// geo parses "lat;lng".
func geo(ev *ical.Event) (float64, float64, bool) {
	p := ev.Props.Get(ical.PropGeo)
	if p == nil {
		return 0, 0, false
	}
	a, b, ok := strings.Cut(p.Value, ";")
	if !ok {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
