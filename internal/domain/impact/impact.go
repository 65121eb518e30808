// Package impact maps a composite score to operational guidance.
package impact

import (
	"github.com/okian/fixturedensity/internal/domain/scoring"
	"github.com/okian/fixturedensity/internal/domain/types"
)

// Verdicts, from least to most severe.
const (
	DecisionNormal = "normal"
	DecisionBuffer = "moderate, plan buffer"
	DecisionShift  = "high pressure, consider shifting"
	DecisionAvoid  = "avoid scheduling"
)

// DecisionThresholds are the lowest scores of the buffer, shift and avoid
// verdicts.
type DecisionThresholds struct {
	Buffer int
	Shift  int
	Avoid  int
}

// DefaultDecisionThresholds are 50, 65 and 80.
var DefaultDecisionThresholds = DecisionThresholds{Buffer: 50, Shift: 65, Avoid: 80} //nolint:gochecknoglobals // calibration default

func (t DecisionThresholds) valid() bool {
	return t.Buffer > 0 && t.Buffer < t.Shift && t.Shift < t.Avoid && t.Avoid <= 100
}

func (t DecisionThresholds) decide(score int) string {
	switch {
	case score >= t.Avoid:
		return DecisionAvoid
	case score >= t.Shift:
		return DecisionShift
	case score >= t.Buffer:
		return DecisionBuffer
	}
	return DecisionNormal
}

// Range is a signed percentage deviation in attendance or revenue.
type Range struct {
	Low  float64
	High float64
}

// DefaultRanges are the attendance or revenue deviations per band.
var DefaultRanges = map[scoring.Band]Range{ //nolint:gochecknoglobals // calibration default
	scoring.BandLow:      {Low: -2, High: 2},
	scoring.BandModerate: {Low: -8, High: -2},
	scoring.BandHigh:     {Low: -15, High: -6},
	scoring.BandCritical: {Low: -25, High: -12},
}

var catalog = map[scoring.Band][]string{
	scoring.BandLow: {
		"Monitor the fixture calendar for late changes",
	},
	scoring.BandModerate: {
		"Review the steward rota",
		"Share kickoff times with local transport operators",
	},
	scoring.BandHigh: {
		"Increase steward numbers",
		"Coordinate with the transport authority",
		"Request police liaison",
	},
	scoring.BandCritical: {
		"Increase steward numbers",
		"Coordinate with the transport authority",
		"Request police liaison",
		"Stagger kickoff times with neighbouring venues",
		"Activate the overflow parking and crowd management plan",
	},
}

// Projector is a pure step function from score to ImpactProjection.
type Projector struct {
	scorer      *scoring.Scorer
	multipliers map[scoring.Band]float64
	ranges      map[scoring.Band]Range
	decisions   DecisionThresholds
}

// New creates a Projector with multipliers 1.0, 1.15, 1.35 and 1.6.
func New(opts ...Option) *Projector {
	p := &Projector{
		scorer: scoring.New(),
		multipliers: map[scoring.Band]float64{
			scoring.BandLow:      1.0,
			scoring.BandModerate: 1.15,
			scoring.BandHigh:     1.35,
			scoring.BandCritical: 1.6,
		},
		ranges:    DefaultRanges,
		decisions: DefaultDecisionThresholds,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project returns the guidance for a final score.
func (p *Projector) Project(score int) types.ImpactProjection {
	band := p.scorer.Band(score)
	r := p.ranges[band]
	actions := make([]string, len(catalog[band]))
	copy(actions, catalog[band])
	return types.ImpactProjection{
		StaffMultiplier:    p.multipliers[band],
		ImpactRangeLowPct:  r.Low,
		ImpactRangeHighPct: r.High,
		RecommendedActions: actions,
		Decision:           p.decisions.decide(score),
	}
}

// Decision returns the short verdict for a score under the default thresholds.
func Decision(score int) string {
	return DefaultDecisionThresholds.decide(score)
}

// Magnitude is the largest absolute deviation of the range.
func (r Range) Magnitude() float64 {
	return max(abs(r.Low), abs(r.High))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
