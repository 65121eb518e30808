// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"
)

// Band names used as keys of StaffMultipliers and ImpactRanges.
var bandOrder = []string{"low", "moderate", "high", "critical"} //nolint:gochecknoglobals // fixed band order

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of sweep workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the sweep task queue.
	QueueSize int `koanf:"queue_size"`
	// MemoSize bounds the candidate evaluation cache; 0 disables it.
	MemoSize int `koanf:"memo_size"`
	// MaxEvents caps the raw events accepted per request.
	MaxEvents int `koanf:"max_events"`

	// Timezone is the default reference zone for requests that omit one.
	Timezone string `koanf:"timezone"`
	// DecisionWindowDays is the default forward horizon for alternatives.
	DecisionWindowDays int `koanf:"decision_window_days"`
	// ProximityMarginMinutes widens every window when measuring concurrency.
	ProximityMarginMinutes int `koanf:"proximity_margin_minutes"`
	// DefaultDurationMinutes applies to point events of sports not in SportDurations.
	DefaultDurationMinutes int `koanf:"default_duration_minutes"`
	// SportDurations maps sports to point-event durations in minutes.
	SportDurations map[string]int `koanf:"sport_durations"`
	// DefaultRadiusKm applies to anchors given without a radius.
	DefaultRadiusKm float64 `koanf:"default_radius_km"`

	// Blend weights of the composite score.
	PeakWeight       float64 `koanf:"peak_weight"`
	SpatialWeight    float64 `koanf:"spatial_weight"`
	TimeWeight       float64 `koanf:"time_weight"`
	PercentileWeight float64 `koanf:"percentile_weight"`

	// Points contributed per counted event before a feature saturates at 100.
	PeakUnit    float64 `koanf:"peak_unit"`
	SpatialUnit float64 `koanf:"spatial_unit"`
	TimeUnit    float64 `koanf:"time_unit"`

	// Lowest scores of the moderate, high and critical bands.
	BandModerate int `koanf:"band_moderate"`
	BandHigh     int `koanf:"band_high"`
	BandCritical int `koanf:"band_critical"`

	// StaffMultipliers maps band names to staffing multipliers.
	StaffMultipliers map[string]float64 `koanf:"staff_multipliers"`

	// Lowest scores of the buffer, shift and avoid verdicts.
	DecisionBuffer int `koanf:"decision_buffer"`
	DecisionShift  int `koanf:"decision_shift"`
	DecisionAvoid  int `koanf:"decision_avoid"`

	// ImpactRanges maps band names to projected attendance deviations in percent.
	ImpactRanges map[string]ImpactRange `koanf:"impact_ranges"`
}

// ImpactRange is a signed percentage interval.
type ImpactRange struct {
	Low  float64 `koanf:"low"`
	High float64 `koanf:"high"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		WorkerCount:            runtime.NumCPU(),
		QueueSize:              1024,
		MemoSize:               4096,
		MaxEvents:              50_000,
		Timezone:               "UTC",
		DecisionWindowDays:     30,
		ProximityMarginMinutes: 120,
		DefaultDurationMinutes: 120,
		SportDurations: map[string]int{
			"football":   150,
			"soccer":     150,
			"rugby":      150,
			"basketball": 120,
			"baseball":   210,
		},
		DefaultRadiusKm:  50,
		PeakWeight:       0.4,
		SpatialWeight:    0.3,
		TimeWeight:       0.3,
		PercentileWeight: 0.2,
		PeakUnit:         20,
		SpatialUnit:      10,
		TimeUnit:         10,
		BandModerate:     40,
		BandHigh:         65,
		BandCritical:     80,
		StaffMultipliers: map[string]float64{
			"low":      1.0,
			"moderate": 1.15,
			"high":     1.35,
			"critical": 1.6,
		},
		DecisionBuffer: 50,
		DecisionShift:  65,
		DecisionAvoid:  80,
		ImpactRanges: map[string]ImpactRange{
			"low":      {Low: -2, High: 2},
			"moderate": {Low: -8, High: -2},
			"high":     {Low: -15, High: -6},
			"critical": {Low: -25, High: -12},
		},
	}
}

// Validate checks invariants the engine relies on.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Addr == "" {
		add("addr must not be empty")
	}
	if _, err := c.Location(); err != nil {
		add("timezone %q: %v", c.Timezone, err)
	}
	if c.DecisionWindowDays < 1 {
		add("decision_window_days must be positive")
	}
	if c.ProximityMarginMinutes < 0 {
		add("proximity_margin_minutes must not be negative")
	}
	if c.DefaultDurationMinutes < 0 {
		add("default_duration_minutes must not be negative")
	}
	for sport, m := range c.SportDurations {
		if m < 0 {
			add("sport_durations.%s must not be negative", sport)
		}
	}
	if c.DefaultRadiusKm <= 0 {
		add("default_radius_km must be positive")
	}
	if c.PeakWeight < 0 || c.SpatialWeight < 0 || c.TimeWeight < 0 {
		add("blend weights must not be negative")
	}
	if c.PeakWeight+c.SpatialWeight+c.TimeWeight <= 0 {
		add("blend weights must have a positive sum")
	}
	if c.PercentileWeight < 0 || c.PercentileWeight > 1 {
		add("percentile_weight must be within [0,1]")
	}
	if c.PeakUnit <= 0 || c.SpatialUnit <= 0 || c.TimeUnit <= 0 {
		add("feature units must be positive")
	}
	if !(c.BandModerate > 0 && c.BandModerate < c.BandHigh && c.BandHigh < c.BandCritical && c.BandCritical <= 100) {
		add("band thresholds must ascend within (0,100]")
	}
	prev := 1.0
	for _, band := range bandOrder {
		m, ok := c.StaffMultipliers[band]
		switch {
		case !ok:
			add("staff_multipliers.%s is missing", band)
		case m < prev:
			add("staff_multipliers.%s must be >= %.2f", band, prev)
		default:
			prev = m
		}
	}
	if !(c.DecisionBuffer > 0 && c.DecisionBuffer < c.DecisionShift && c.DecisionShift < c.DecisionAvoid && c.DecisionAvoid <= 100) {
		add("decision thresholds must ascend within (0,100]")
	}
	prevMag := 0.0
	for _, band := range bandOrder {
		r, ok := c.ImpactRanges[band]
		switch {
		case !ok:
			add("impact_ranges.%s is missing", band)
		case r.Low > r.High:
			add("impact_ranges.%s low must not exceed high", band)
		case max(math.Abs(r.Low), math.Abs(r.High)) < prevMag:
			add("impact_ranges.%s must not be narrower than the band below", band)
		default:
			prevMag = max(math.Abs(r.Low), math.Abs(r.High))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Location loads the default reference zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ProximityMargin returns the concurrency margin as a duration.
func (c *Config) ProximityMargin() time.Duration {
	return time.Duration(c.ProximityMarginMinutes) * time.Minute
}

// DefaultDuration returns the fallback point-event duration.
func (c *Config) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

// SportDurationTable converts SportDurations to durations.
func (c *Config) SportDurationTable() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.SportDurations))
	for sport, m := range c.SportDurations {
		out[sport] = time.Duration(m) * time.Minute
	}
	return out
}
