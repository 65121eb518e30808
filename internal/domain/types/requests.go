package types

import "github.com/okian/fixturedensity/internal/domain/model"

// ScoreRequest is the input of every scoring surface.
type ScoreRequest struct {
	Events             []model.RawEvent `json:"events"`
	TargetKey          string           `json:"targetKey,omitempty"`
	AnchorLocation     *model.LatLng    `json:"anchorLocation,omitempty"`
	Bounds             *model.Bounds    `json:"bounds,omitempty"`
	RadiusKm           float64          `json:"radiusKm,omitempty"`
	DecisionWindowDays int              `json:"decisionWindowDays,omitempty"`
	Timezone           string           `json:"timezone,omitempty"`
	// Now overrides the reference instant (RFC3339); empty means the current time.
	Now string `json:"now,omitempty"`
	// SessionID scopes last-request-wins supersession.
	SessionID   string `json:"sessionId,omitempty"`
	GroupBy     string `json:"groupBy,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// Rank places the target among its alternatives by final score, the same
// order as the alternatives list. Its percentile is therefore over final
// scores; RiskResult.Percentile is over base scores and feeds the final score.
type Rank struct {
	Rank       int `json:"rank"`
	Percentile int `json:"percentile"`
	Total      int `json:"total"`
}

// ScoreResponse bundles the target's risk with its operational projection.
type ScoreResponse struct {
	RequestID     string            `json:"requestId,omitempty"`
	Kind          string            `json:"kind"`
	Risk          RiskResult        `json:"risk"`
	Rank          Rank              `json:"rank"`
	Impact        ImpactProjection  `json:"impact"`
	Alternatives  []CandidateOption `json:"alternatives"`
	Best          CandidateOption   `json:"best"`
	TargetIsBest  bool              `json:"targetIsBest"`
	SkippedEvents int               `json:"skippedEvents"`
}

// AlternativesResponse is the ranked candidate list alone.
type AlternativesResponse struct {
	RequestID     string            `json:"requestId,omitempty"`
	TargetKey     string            `json:"targetKey"`
	Alternatives  []CandidateOption `json:"alternatives"`
	Best          CandidateOption   `json:"best"`
	SkippedEvents int               `json:"skippedEvents"`
}

// CongestionResponse carries the overall report and, when grouped, one per group.
type CongestionResponse struct {
	RequestID     string             `json:"requestId,omitempty"`
	Overall       CongestionReport   `json:"overall"`
	Groups        []CongestionReport `json:"groups,omitempty"`
	SkippedEvents int                `json:"skippedEvents"`
}

// OverlapResponse wraps the histogram view.
type OverlapResponse struct {
	RequestID     string        `json:"requestId,omitempty"`
	Report        OverlapReport `json:"report"`
	SkippedEvents int           `json:"skippedEvents"`
}
