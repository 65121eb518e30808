package normalize

import (
	"strings"
	"time"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithLocation sets the reference zone used for wall-clock fields.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithDefaultDuration sets the duration used for point events of unknown sports.
func WithDefaultDuration(d time.Duration) Option {
	return func(n *Normalizer) {
		if d > 0 {
			n.defaultDuration = d
		}
	}
}

// WithSportDurations replaces the per-sport duration table. Keys are matched
// case-insensitively; non-positive durations are ignored.
func WithSportDurations(durations map[string]time.Duration) Option {
	return func(n *Normalizer) {
		if durations == nil {
			return
		}
		n.durations = make(map[string]time.Duration, len(durations))
		for sport, d := range durations {
			if d > 0 {
				n.durations[canonicalSport(sport)] = d
			}
		}
	}
}

func canonicalSport(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
