package scoring

// Option configures a Scorer.
type Option func(*Scorer)

// WithWeights sets the blend weights. Negative weights are ignored, as is a
// set whose feature weights sum to zero.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		if w.Peak < 0 || w.Spatial < 0 || w.Time < 0 || w.Percentile < 0 || w.Percentile > 1 {
			return
		}
		if w.Peak+w.Spatial+w.Time <= 0 {
			return
		}
		s.weights = w
	}
}

// WithUnits sets the score points contributed per counted event, per feature.
func WithUnits(u Units) Option {
	return func(s *Scorer) {
		if u.Peak > 0 && u.Spatial > 0 && u.Time > 0 {
			s.units = u
		}
	}
}

// WithThresholds sets the band thresholds. They must be ascending.
func WithThresholds(t Thresholds) Option {
	return func(s *Scorer) {
		if t.Moderate > 0 && t.Moderate < t.High && t.High < t.Critical && t.Critical <= maxScore {
			s.thresholds = t
		}
	}
}
