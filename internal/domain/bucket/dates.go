package bucket

import (
	"fmt"
	"time"

	"github.com/okian/fixturedensity/internal/domain/model"
)

// DayKey returns the local calendar date of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(model.DateLayout)
}

// IsWeekend reports whether t falls on a Saturday or Sunday in loc.
func IsWeekend(t time.Time, loc *time.Location) bool {
	switch t.In(loc).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// DayWindow returns [local midnight, next local midnight) for a date key.
// The window is 23 or 25 hours long on DST transition days.
func DayWindow(date string, loc *time.Location) (model.TimeWindow, error) {
	d, err := time.ParseInLocation(model.DateLayout, date, loc)
	if err != nil {
		return model.TimeWindow{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return model.TimeWindow{Start: d, End: d.AddDate(0, 0, 1)}, nil
}

// DateRange returns days consecutive date keys starting at the local date of from.
func DateRange(from time.Time, days int, loc *time.Location) []string {
	if days <= 0 {
		return nil
	}
	local := from.In(loc)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	out := make([]string, days)
	for i := range out {
		out[i] = first.AddDate(0, 0, i).Format(model.DateLayout)
	}
	return out
}
