// Package normalize turns heterogeneous raw event records into canonical events.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/fixturedensity/internal/domain/model"
)

// Default point-event durations.
const (
	defaultPointDuration = 120 * time.Minute
	footballDuration     = 150 * time.Minute
	basketballDuration   = 120 * time.Minute
	baseballDuration     = 210 * time.Minute

	// Numbers above this are treated as unix milliseconds.
	unixMillisThreshold = 1e12
	// Unix seconds below this (September 2001) are rejected.
	unixSecondsFloor = 1e9
)

// Field aliases, in resolution order.
var (
	idFields           = []string{"id", "eventId", "event_id", "_id"}
	sessionStartFields = []string{"sessionStart", "session_start", "startTime", "start_time", "start"}
	sessionEndFields   = []string{"sessionEnd", "session_end", "endTime", "end_time", "end"}
	dateFields         = []string{"date", "dateTime", "datetime", "kickoff"}
	utcDateFields      = []string{"dateUtc", "date_utc", "utcDate", "utc_date"}
	kindFields         = []string{"kind", "eventKind", "type"}
	sportFields        = []string{"sport", "sportType", "sport_type"}
	regionFields       = []string{"region", "county"}
	cityFields         = []string{"city", "town"}
	venueFields        = []string{"venue", "venueName", "venue_name", "course"}
	latFields          = []string{"lat", "latitude"}
	lngFields          = []string{"lng", "lon", "longitude"}
	locationFields     = []string{"location", "coordinates", "venueLocation"}
)

// Wall-clock layouts interpreted in the reference zone (or UTC for UTC-date fields).
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	model.DateLayout,
	"20060102T150405",
	"20060102T1504",
	"20060102",
}

// Normalizer canonicalizes raw records. It is safe for concurrent use.
type Normalizer struct {
	durations       map[string]time.Duration
	defaultDuration time.Duration
	loc             *time.Location
}

// New creates a Normalizer with the observed default-duration table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		durations: map[string]time.Duration{
			"football":   footballDuration,
			"soccer":     footballDuration,
			"rugby":      footballDuration,
			"basketball": basketballDuration,
			"baseball":   baseballDuration,
		},
		defaultDuration: defaultPointDuration,
		loc:             time.UTC,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Location returns the reference zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// DefaultDuration returns the inferred duration of a point event for sport.
func (n *Normalizer) DefaultDuration(sport string) time.Duration {
	if d, ok := n.durations[canonicalSport(sport)]; ok {
		return d
	}
	return n.defaultDuration
}

// Normalize converts one raw record. index is only used for error reporting
// and for the fallback id.
func (n *Normalizer) Normalize(index int, raw model.RawEvent) (model.Event, error) {
	id := firstString(raw, idFields)
	if id == "" {
		id = "event-" + strconv.Itoa(index)
	}
	invalid := func(reason string) error {
		return &InvalidEventError{Index: index, ID: id, Reason: reason}
	}

	start, ok := n.anchor(raw)
	if !ok {
		return model.Event{}, invalid("no parsable start, date or utc date field")
	}

	sport := canonicalSport(firstString(raw, sportFields))
	ev := model.Event{
		ID:       id,
		Start:    start,
		Sport:    sport,
		Kind:     resolveKind(raw),
		Region:   firstString(raw, regionFields),
		City:     firstString(raw, cityFields),
		Venue:    firstString(raw, venueFields),
		Location: resolveLocation(raw),
	}

	if ev.Kind == model.KindSession {
		end, ok := n.firstInstant(raw, sessionEndFields, n.loc)
		if !ok {
			return model.Event{}, invalid("session without parsable end")
		}
		if end.Before(start) {
			return model.Event{}, invalid("session ends before it starts")
		}
		ev.End = end
		return ev, nil
	}

	ev.End = start.Add(n.DefaultDuration(sport))
	return ev, nil
}

// NormalizeAll converts every record, skipping invalid ones. The returned
// errors are all *InvalidEventError and are meant to be logged, not returned.
func (n *Normalizer) NormalizeAll(raws []model.RawEvent) ([]model.Event, []error) {
	events := make([]model.Event, 0, len(raws))
	var skipped []error
	for i, raw := range raws {
		ev, err := n.Normalize(i, raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		events = append(events, ev)
	}
	return events, skipped
}

// anchor resolves the start instant: session start, then generic date, then UTC date.
func (n *Normalizer) anchor(raw model.RawEvent) (time.Time, bool) {
	if t, ok := n.firstInstant(raw, sessionStartFields, n.loc); ok {
		return t, true
	}
	if t, ok := n.firstInstant(raw, dateFields, n.loc); ok {
		return t, true
	}
	return n.firstInstant(raw, utcDateFields, time.UTC)
}

func (n *Normalizer) firstInstant(raw model.RawEvent, fields []string, loc *time.Location) (time.Time, bool) {
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || v == nil {
			continue
		}
		if t, ok := parseInstant(v, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseInstant(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		return parseTimeString(strings.TrimSpace(x), loc)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromUnix(f)
	case float64:
		return fromUnix(x)
	case int:
		return fromUnix(float64(x))
	case int64:
		return fromUnix(float64(x))
	}
	return time.Time{}, false
}

func parseTimeString(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromUnix(f)
	}
	return time.Time{}, false
}

func fromUnix(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < unixSecondsFloor {
		return time.Time{}, false
	}
	if f >= unixMillisThreshold {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), true
}

func resolveKind(raw model.RawEvent) model.Kind {
	switch strings.ToLower(firstString(raw, kindFields)) {
	case string(model.KindSession):
		return model.KindSession
	case string(model.KindPoint):
		return model.KindPoint
	}
	for _, f := range sessionEndFields {
		if v, ok := raw[f]; ok && v != nil && v != "" {
			return model.KindSession
		}
	}
	return model.KindPoint
}

func resolveLocation(raw model.RawEvent) *model.LatLng {
	if p, ok := latLngFrom(raw); ok {
		return p
	}
	for _, f := range locationFields {
		nested, ok := raw[f].(map[string]any)
		if !ok {
			continue
		}
		if p, ok := latLngFrom(nested); ok {
			return p
		}
	}
	return nil
}

func latLngFrom(m map[string]any) (*model.LatLng, bool) {
	lat, okLat := firstFloat(m, latFields)
	lng, okLng := firstFloat(m, lngFields)
	if !okLat || !okLng {
		return nil, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, false
	}
	return &model.LatLng{Lat: lat, Lng: lng}, true
}

func firstString(m map[string]any, fields []string) string {
	for _, f := range fields {
		switch v := m[f].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case fmt.Stringer:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func firstFloat(m map[string]any, fields []string) (float64, bool) {
	for _, f := range fields {
		switch v := m[f].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case json.Number:
			if x, err := v.Float64(); err == nil {
				return x, true
			}
		case string:
			if x, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return x, true
			}
		}
	}
	return 0, false
}
