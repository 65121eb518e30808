package scoring

import "errors"

// Sentinel errors for this package.
var (
	ErrUnknownFeature = errors.New("unknown density feature kind")
	ErrUnknownGroup   = errors.New("unknown congestion grouping")
)
