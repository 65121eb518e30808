package overlap

import "time"

// Option configures a Detector.
type Option func(*Detector)

// WithMargin sets the proximity margin applied on both sides of each window
// when measuring concurrency. Negative values are ignored.
func WithMargin(m time.Duration) Option {
	return func(d *Detector) {
		if m >= 0 {
			d.margin = m
		}
	}
}

// WithDefaultRadius sets the radius used when an anchor is supplied without one.
func WithDefaultRadius(km float64) Option {
	return func(d *Detector) {
		if km > 0 {
			d.defaultRadiusKm = km
		}
	}
}
