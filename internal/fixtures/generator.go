// Package fixtures generates synthetic raw event feeds and submits scoring
// requests to a running density server.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/okian/fixturedensity/internal/domain/model"
)

// Constants for start times and session lengths.
const (
	firstHour       = 12
	hourSpan        = 9
	minSessionHours = 3
	sessionSpan     = 6
	invalidStart    = "TBC"
)

// Generate creates cfg.Count raw records. Field names vary between the
// aliases the normalizer accepts, the way real feeds do. Output is fully
// determined by cfg.Seed.
func Generate(ctx context.Context, cfg Config) ([]model.RawEvent, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures, not security
	local := cfg.Start.In(loc)
	day0 := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	events := make([]model.RawEvent, cfg.Count)
	for i := range events {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled during fixture generation: %w", err)
			}
		}
		events[i] = generateSingle(rng, cfg, day0, i)
	}
	return events, nil
}

func validate(cfg Config) error {
	switch {
	case cfg.Count < 0:
		return fmt.Errorf("%w: negative count", ErrInvalidConfig)
	case cfg.Days < 1:
		return fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	case len(cfg.Venues) == 0:
		return fmt.Errorf("%w: no venues", ErrInvalidConfig)
	case len(cfg.Sports) == 0:
		return fmt.Errorf("%w: no sports", ErrInvalidConfig)
	case cfg.SessionShare < 0 || cfg.SessionShare > 1, cfg.InvalidShare < 0 || cfg.InvalidShare > 1:
		return fmt.Errorf("%w: shares must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// generateSingle creates one record.
func generateSingle(rng *rand.Rand, cfg Config, day0 time.Time, index int) model.RawEvent {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		id = uuid.New()
	}
	venue := cfg.Venues[rng.Intn(len(cfg.Venues))]
	sport := cfg.Sports[rng.Intn(len(cfg.Sports))]
	start := day0.AddDate(0, 0, rng.Intn(cfg.Days)).
		Add(time.Duration(firstHour+rng.Intn(hourSpan)) * time.Hour).
		Add(time.Duration(rng.Intn(2)*30) * time.Minute)

	ev := model.RawEvent{"sport": sport, "region": venue.Region, "city": venue.City}
	if index%2 == 0 {
		ev["id"] = id.String()
		ev["venue"] = venue.Name
		ev["lat"] = venue.Lat
		ev["lng"] = venue.Lng
	} else {
		ev["eventId"] = id.String()
		ev["venueName"] = venue.Name
		ev["location"] = map[string]any{"latitude": venue.Lat, "longitude": venue.Lng}
	}

	invalid := rng.Float64() < cfg.InvalidShare
	switch {
	case rng.Float64() < cfg.SessionShare:
		end := start.Add(time.Duration(minSessionHours+rng.Intn(sessionSpan)) * time.Hour)
		ev["kind"] = string(model.KindSession)
		ev["sessionStart"] = start.Format("2006-01-02T15:04")
		ev["sessionEnd"] = end.Format("2006-01-02T15:04")
		if invalid {
			ev["sessionStart"] = invalidStart
		}
	default:
		switch rng.Intn(3) {
		case 0:
			ev["date"] = start.Format(time.RFC3339)
		case 1:
			ev["kickoff"] = start.Format(time.RFC3339)
		default:
			ev["dateUtc"] = start.UTC().Format("2006-01-02 15:04")
		}
		if invalid {
			delete(ev, "date")
			delete(ev, "kickoff")
			delete(ev, "dateUtc")
			ev["date"] = invalidStart
		}
	}
	return ev
}
