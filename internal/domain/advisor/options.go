package advisor

import (
	"github.com/okian/fixturedensity/internal/domain/impact"
	"github.com/okian/fixturedensity/internal/domain/memo"
	"github.com/okian/fixturedensity/internal/domain/overlap"
	"github.com/okian/fixturedensity/internal/domain/scoring"
)

// Option configures an Advisor.
type Option func(*Advisor)

// WithDetector sets the overlap detector.
func WithDetector(d *overlap.Detector) Option {
	return func(a *Advisor) {
		if d != nil {
			a.detector = d
		}
	}
}

// WithScorer sets the composite scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(a *Advisor) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithProjector sets the impact projector.
func WithProjector(p *impact.Projector) Option {
	return func(a *Advisor) {
		if p != nil {
			a.projector = p
		}
	}
}

// WithCache enables memoization of candidate features.
func WithCache(c memo.Cache) Option {
	return func(a *Advisor) {
		a.cache = c
	}
}

// WithExecutor runs candidate evaluations on e instead of inline.
func WithExecutor(e Executor) Option {
	return func(a *Advisor) {
		a.executor = e
	}
}

// WithWindowDays sets the default decision window.
func WithWindowDays(days int) Option {
	return func(a *Advisor) {
		if days > 0 {
			a.windowDays = days
		}
	}
}
