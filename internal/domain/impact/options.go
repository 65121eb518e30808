package impact

import "github.com/okian/fixturedensity/internal/domain/scoring"

// Option configures a Projector.
type Option func(*Projector)

// WithStaffMultipliers sets the multiplier per band. The values must be at
// least 1.0 and non-decreasing from low to critical; otherwise they are ignored.
func WithStaffMultipliers(m map[scoring.Band]float64) Option {
	return func(p *Projector) {
		next := make(map[scoring.Band]float64, len(scoring.Bands))
		prev := 1.0
		for _, b := range scoring.Bands {
			v, ok := m[b]
			if !ok || v < prev {
				return
			}
			next[b] = v
			prev = v
		}
		p.multipliers = next
	}
}

// WithScorer sets the scorer whose thresholds decide the band.
func WithScorer(s *scoring.Scorer) Option {
	return func(p *Projector) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithDecisionThresholds sets where the buffer, shift and avoid verdicts
// begin. Thresholds that do not ascend within (0,100] are ignored.
func WithDecisionThresholds(t DecisionThresholds) Option {
	return func(p *Projector) {
		if t.valid() {
			p.decisions = t
		}
	}
}

// WithRanges sets the impact range per band. Every band must be present with
// Low <= High, and the magnitude must not shrink from low to critical;
// otherwise the ranges are ignored.
func WithRanges(m map[scoring.Band]Range) Option {
	return func(p *Projector) {
		next := make(map[scoring.Band]Range, len(scoring.Bands))
		prev := 0.0
		for _, b := range scoring.Bands {
			r, ok := m[b]
			if !ok || r.Low > r.High || r.Magnitude() < prev {
				return
			}
			next[b] = r
			prev = r.Magnitude()
		}
		p.ranges = next
	}
}
