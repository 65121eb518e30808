// Package types contains the JSON output contracts consumed by dashboards and reports.
package types

// RiskResult is the per-candidate risk summary shown on KPI cards.
type RiskResult struct {
	Key            string `json:"key"`
	PeakConcurrent int    `json:"peakConcurrent"`
	Percentile     int    `json:"percentile"` // over base scores in the decision window
	SpatialOverlap int    `json:"spatialOverlap"`
	TimeOverlap    int    `json:"timeOverlap"`
	FinalScore     int    `json:"finalScore"`
	Band           string `json:"band"`
}

// CongestionReport summarizes fixture density over active days.
type CongestionReport struct {
	Group           string `json:"group,omitempty"`
	TotalCount      int    `json:"totalCount"`
	ActiveDays      int    `json:"activeDays"`
	AvgPerDay       int    `json:"avgPerDay"`
	WeekendShare    int    `json:"weekendShare"`
	CongestionScore int    `json:"congestionScore"`
	Band            string `json:"band"`
}

// ImpactProjection translates a final score into operational guidance.
type ImpactProjection struct {
	StaffMultiplier    float64  `json:"staffMultiplier"`
	ImpactRangeLowPct  float64  `json:"impactRangeLowPct"`
	ImpactRangeHighPct float64  `json:"impactRangeHighPct"`
	RecommendedActions []string `json:"recommendedActions"`
	Decision           string   `json:"decision"`
}

// CandidateOption is one row of the alternative-candidate list.
type CandidateOption struct {
	Key   string `json:"key"`
	Score int    `json:"score"`
	Delta int    `json:"delta"`
}

// Bucket is one histogram bar.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// OverlapReport is the session-type distribution view.
type OverlapReport struct {
	Granularity  string   `json:"granularity"`
	Buckets      []Bucket `json:"buckets"`
	Total        int      `json:"total"`
	PeakBucket   string   `json:"peakBucket"`
	PeakShare    int      `json:"peakShare"`
	OverlapIndex int      `json:"overlapIndex"`
	Level        string   `json:"level"`
}
