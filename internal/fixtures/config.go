package fixtures

import "time"

// Venue is a named place fixtures are generated at.
type Venue struct {
	Name   string
	Region string
	City   string
	Lat    float64
	Lng    float64
}

// Config holds configuration for fixture generation.
type Config struct {
	Count        int            // number of records
	Days         int            // records spread over [Start, Start+Days)
	Start        time.Time      // first day; only the local date is used
	Location     *time.Location // zone of the generated wall clocks
	Venues       []Venue
	Sports       []string
	SessionShare float64 // share of records with explicit start and end
	InvalidShare float64 // share of records with an unparsable start
	Seed         int64
}

// DefaultVenues is a small set of UK venues.
var DefaultVenues = []Venue{ //nolint:gochecknoglobals // fixed catalog
	{Name: "ascot", Region: "berkshire", City: "ascot", Lat: 51.4107, Lng: -0.6746},
	{Name: "kempton", Region: "surrey", City: "sunbury", Lat: 51.4211, Lng: -0.4067},
	{Name: "wembley", Region: "london", City: "london", Lat: 51.5560, Lng: -0.2796},
	{Name: "twickenham", Region: "london", City: "london", Lat: 51.4559, Lng: -0.3415},
	{Name: "york", Region: "north-yorkshire", City: "york", Lat: 53.9461, Lng: -1.0907},
	{Name: "old-trafford", Region: "greater-manchester", City: "manchester", Lat: 53.4631, Lng: -2.2913},
}

// DefaultSports mixes sports with different inferred durations.
var DefaultSports = []string{"football", "rugby", "basketball", "baseball", "racing"} //nolint:gochecknoglobals // fixed catalog

// DefaultConfig returns a config for count records over a month from start.
func DefaultConfig(count int, start time.Time) Config {
	return Config{
		Count:        count,
		Days:         30,
		Start:        start,
		Location:     time.UTC,
		Venues:       DefaultVenues,
		Sports:       DefaultSports,
		SessionShare: 0.2,
		InvalidShare: 0.02,
		Seed:         1,
	}
}
