package service

import (
	"time"

	"github.com/okian/fixturedensity/internal/domain/impact"
	"github.com/okian/fixturedensity/internal/domain/scoring"
	"github.com/okian/fixturedensity/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of sweep workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the sweep task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMemoSize bounds the candidate evaluation cache. Zero disables it.
func WithMemoSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.memoSize = size
		}
	}
}

// WithMaxEvents caps the raw events accepted per request. Zero means no cap.
func WithMaxEvents(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxEvents = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the reference zone for requests without a timezone.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithWindowDays sets the default decision window.
func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithProximityMargin sets the margin added around every window when
// measuring concurrency.
func WithProximityMargin(m time.Duration) Option {
	return func(s *Service) {
		if m >= 0 {
			s.margin = m
		}
	}
}

// WithDefaultRadius sets the radius used for anchors given without one.
func WithDefaultRadius(km float64) Option {
	return func(s *Service) {
		if km > 0 {
			s.radiusKm = km
		}
	}
}

// WithDefaultDuration sets the point-event duration for unlisted sports.
func WithDefaultDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultDuration = d
		}
	}
}

// WithSportDurations sets the per-sport point-event durations.
func WithSportDurations(durations map[string]time.Duration) Option {
	return func(s *Service) {
		s.sportDurations = durations
	}
}

// WithScoring forwards calibration options to the composite scorer.
func WithScoring(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithStaffMultipliers sets the staffing multiplier per band name
// (low, moderate, high, critical).
func WithStaffMultipliers(m map[string]float64) Option {
	return func(s *Service) {
		s.staffMultipliers = m
	}
}

// WithImpact forwards calibration options to the impact projector.
func WithImpact(opts ...impact.Option) Option {
	return func(s *Service) {
		s.impactOpts = append(s.impactOpts, opts...)
	}
}
