package service

import (
	"fmt"
	"strings"

	"github.com/okian/fixturedensity/internal/config"
	"github.com/okian/fixturedensity/internal/domain/impact"
	"github.com/okian/fixturedensity/internal/domain/scoring"
)

// OptionsFromConfig translates process configuration into service options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", config.ErrInvalidConfig, cfg.Timezone, err)
	}
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithMemoSize(cfg.MemoSize),
		WithMaxEvents(cfg.MaxEvents),
		WithLocation(loc),
		WithWindowDays(cfg.DecisionWindowDays),
		WithProximityMargin(cfg.ProximityMargin()),
		WithDefaultRadius(cfg.DefaultRadiusKm),
		WithDefaultDuration(cfg.DefaultDuration()),
		WithSportDurations(cfg.SportDurationTable()),
		WithScoring(
			scoring.WithWeights(scoring.Weights{
				Peak:       cfg.PeakWeight,
				Spatial:    cfg.SpatialWeight,
				Time:       cfg.TimeWeight,
				Percentile: cfg.PercentileWeight,
			}),
			scoring.WithUnits(scoring.Units{Peak: cfg.PeakUnit, Spatial: cfg.SpatialUnit, Time: cfg.TimeUnit}),
			scoring.WithThresholds(scoring.Thresholds{
				Moderate: cfg.BandModerate,
				High:     cfg.BandHigh,
				Critical: cfg.BandCritical,
			}),
		),
		WithStaffMultipliers(cfg.StaffMultipliers),
		WithImpact(
			impact.WithDecisionThresholds(impact.DecisionThresholds{
				Buffer: cfg.DecisionBuffer,
				Shift:  cfg.DecisionShift,
				Avoid:  cfg.DecisionAvoid,
			}),
			impact.WithRanges(impactRanges(cfg.ImpactRanges)),
		),
	}, nil
}

func impactRanges(in map[string]config.ImpactRange) map[scoring.Band]impact.Range {
	out := make(map[scoring.Band]impact.Range, len(in))
	for name, r := range in {
		out[scoring.Band(strings.ToLower(name))] = impact.Range{Low: r.Low, High: r.High}
	}
	return out
}
