package advisor

import "errors"

// Sentinel errors for this package.
var (
	// ErrSuperseded is returned by a sweep cancelled because a newer request
	// for the same session arrived. Its result must be discarded.
	ErrSuperseded = errors.New("sweep superseded by a newer request")
	// ErrUnknownCandidate is returned when the target key is empty.
	ErrUnknownCandidate = errors.New("unknown candidate key")
)
