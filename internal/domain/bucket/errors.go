package bucket

import "errors"

// Sentinel errors for this package.
var (
	ErrUnknownGranularity = errors.New("unknown bucket granularity")
	ErrInvalidDate        = errors.New("invalid date key")
)
