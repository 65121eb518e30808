// Package scoring implements the density scorer: the Congestion and Overlap
// index families, and the composite risk score with its qualitative band.
package scoring

import (
	"github.com/okian/fixturedensity/internal/domain/overlap"
	"github.com/okian/fixturedensity/internal/domain/types"
)

// Band is a qualitative tier of a composite score.
type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
	BandCritical Band = "critical"
)

// Bands lists every tier from lowest to highest.
var Bands = []Band{BandLow, BandModerate, BandHigh, BandCritical}

// Default calibration constants.
const (
	defaultPeakWeight       = 0.4
	defaultSpatialWeight    = 0.3
	defaultTimeWeight       = 0.3
	defaultPercentileWeight = 0.2

	defaultPeakUnit    = 20
	defaultSpatialUnit = 10
	defaultTimeUnit    = 10

	defaultModerate = 40
	defaultHigh     = 65
	defaultCritical = 80
)

// Weights blend the saturated features into a base score and the base score
// with the percentile into the final score.
type Weights struct {
	Peak       float64
	Spatial    float64
	Time       float64
	Percentile float64 // share of the final score taken by the percentile, in [0,1]
}

// Units are the score points one counted event adds to a feature, before
// the feature saturates at 100.
type Units struct {
	Peak    float64
	Spatial float64
	Time    float64
}

// Thresholds are the lowest scores of the moderate, high and critical bands.
type Thresholds struct {
	Moderate int
	High     int
	Critical int
}

// Scorer computes composite risk scores. It is immutable after New.
type Scorer struct {
	weights    Weights
	units      Units
	thresholds Thresholds
}

// New creates a Scorer with the default calibration.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights: Weights{
			Peak:       defaultPeakWeight,
			Spatial:    defaultSpatialWeight,
			Time:       defaultTimeWeight,
			Percentile: defaultPercentileWeight,
		},
		units:      Units{Peak: defaultPeakUnit, Spatial: defaultSpatialUnit, Time: defaultTimeUnit},
		thresholds: Thresholds{Moderate: defaultModerate, High: defaultHigh, Critical: defaultCritical},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Thresholds returns the configured band thresholds.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Base folds the raw features of one scope into a bounded score that does
// not depend on any other scope.
func (s *Scorer) Base(f overlap.Features) int {
	w := s.weights
	total := w.Peak + w.Spatial + w.Time
	if total <= 0 {
		return 0
	}
	peak := saturate(f.PeakConcurrent, s.units.Peak)
	spatial := saturate(f.SpatialOverlap, s.units.Spatial)
	tm := saturate(f.TimeOverlap, s.units.Time)
	return roundInt((w.Peak*peak + w.Spatial*spatial + w.Time*tm) / total)
}

// Final blends a base score with its percentile in the decision window.
func (s *Scorer) Final(base, percentile int) int {
	p := s.weights.Percentile
	return clamp(roundInt((1-p)*float64(base) + p*float64(percentile)))
}

// Band maps a score onto its tier.
func (s *Scorer) Band(score int) Band {
	switch {
	case score >= s.thresholds.Critical:
		return BandCritical
	case score >= s.thresholds.High:
		return BandHigh
	case score >= s.thresholds.Moderate:
		return BandModerate
	}
	return BandLow
}

// Risk assembles the RiskResult for one candidate.
func (s *Scorer) Risk(key string, f overlap.Features, percentile int) types.RiskResult {
	final := s.Final(s.Base(f), percentile)
	return types.RiskResult{
		Key:            key,
		PeakConcurrent: f.PeakConcurrent,
		Percentile:     percentile,
		SpatialOverlap: f.SpatialOverlap,
		TimeOverlap:    f.TimeOverlap,
		FinalScore:     final,
		Band:           string(s.Band(final)),
	}
}

func saturate(count int, unit float64) float64 {
	if count <= 0 {
		return 0
	}
	v := float64(count) * unit
	if v > maxScore {
		return maxScore
	}
	return v
}

func clamp(v int) int {
	return max(0, min(maxScore, v))
}
