package model

// CandidateKind identifies what a candidate key refers to.
type CandidateKind string

const (
	// CandidateDate keys are local calendar dates formatted as 2006-01-02.
	CandidateDate CandidateKind = "date"
	// CandidateVenue keys are venue identifiers as they appear on events.
	CandidateVenue CandidateKind = "venue"
)

// DateLayout is the canonical layout of date candidate keys and day buckets.
const DateLayout = "2006-01-02"

// Candidate is one option the advisor evaluates.
type Candidate struct {
	Kind CandidateKind
	Key  string
}
