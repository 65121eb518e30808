package scoring

import (
	"fmt"
	"math"

	"github.com/okian/fixturedensity/internal/domain/bucket"
)

// FeatureKind tags the score family a DensityFeature belongs to.
type FeatureKind string

const (
	KindCongestion FeatureKind = "congestion"
	KindOverlap    FeatureKind = "overlap"
)

// Density family labels.
const (
	CongestionHigh     = "high"
	CongestionModerate = "moderate"

	LevelHigh     = "High"
	LevelModerate = "Moderate"
	LevelLow      = "Low"

	congestionHighAbove = 60
	levelHighAbove      = 70
	levelModerateAbove  = 40
	maxScore            = 100
)

// CongestionInput holds the counts behind a Congestion Index.
type CongestionInput struct {
	TotalCount   int
	ActiveDays   int
	WeekendCount int
}

// OverlapInput holds bucket counts behind an Overlap Index. Empty buckets
// are ignored.
type OverlapInput struct {
	Counts []int
}

// DensityFeature is one input to the density scorer. Only the payload
// matching Kind is read.
type DensityFeature struct {
	Kind       FeatureKind
	Congestion CongestionInput
	Overlap    OverlapInput
}

// CongestionFeature builds a congestion-tagged feature.
func CongestionFeature(total, activeDays, weekend int) DensityFeature {
	return DensityFeature{
		Kind:       KindCongestion,
		Congestion: CongestionInput{TotalCount: total, ActiveDays: activeDays, WeekendCount: weekend},
	}
}

// OverlapFeature builds an overlap-tagged feature.
func OverlapFeature(counts []int) DensityFeature {
	return DensityFeature{Kind: KindOverlap, Overlap: OverlapInput{Counts: counts}}
}

// Density is the bounded result of scoring one DensityFeature.
type Density struct {
	Kind  FeatureKind
	Score int
	Label string
}

// Evaluate scores a tagged feature with the formula of its family.
func Evaluate(f DensityFeature) (Density, error) {
	switch f.Kind {
	case KindCongestion:
		c := Congestion(f.Congestion)
		return Density{Kind: f.Kind, Score: c.Score, Label: c.Band}, nil
	case KindOverlap:
		o := OverlapIndex(f.Overlap)
		return Density{Kind: f.Kind, Score: o.Index, Label: o.Level}, nil
	}
	return Density{}, fmt.Errorf("%w: %q", ErrUnknownFeature, f.Kind)
}

// CongestionResult is the Congestion Index with its intermediate values.
type CongestionResult struct {
	AvgPerDay    int
	WeekendShare int
	Score        int
	Band         string
}

// Congestion computes
//
//	avgPerDay    = round(total / activeDays)
//	weekendShare = round(weekend / total * 100)
//	score        = min(100, round(avgPerDay*10 + weekendShare))
//
// with every zero denominator yielding 0.
func Congestion(in CongestionInput) CongestionResult {
	var r CongestionResult
	if in.ActiveDays > 0 {
		r.AvgPerDay = roundInt(float64(in.TotalCount) / float64(in.ActiveDays))
	}
	r.WeekendShare = bucket.Share(in.WeekendCount, in.TotalCount)
	r.Score = min(maxScore, r.AvgPerDay*10+r.WeekendShare)
	r.Band = CongestionModerate
	if r.Score > congestionHighAbove {
		r.Band = CongestionHigh
	}
	return r
}

// OverlapResult is the Overlap Index with its intermediate values.
type OverlapResult struct {
	Peak  int
	Avg   float64
	Index int
	Level string
}

// OverlapIndex computes min(100, round(peak / mean(non-empty buckets) * 25)).
func OverlapIndex(in OverlapInput) OverlapResult {
	var r OverlapResult
	sum, n := 0, 0
	for _, c := range in.Counts {
		if c <= 0 {
			continue
		}
		sum += c
		n++
		if c > r.Peak {
			r.Peak = c
		}
	}
	if n > 0 {
		r.Avg = float64(sum) / float64(n)
	}
	if r.Avg > 0 {
		r.Index = min(maxScore, roundInt(float64(r.Peak)/r.Avg*25))
	}
	switch {
	case r.Index > levelHighAbove:
		r.Level = LevelHigh
	case r.Index > levelModerateAbove:
		r.Level = LevelModerate
	default:
		r.Level = LevelLow
	}
	return r
}

func roundInt(x float64) int {
	return int(math.Round(x))
}
