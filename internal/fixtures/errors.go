package fixtures

import "errors"

// Sentinel errors for fixture generation and remote calls.
var (
	ErrInvalidConfig = errors.New("invalid fixture config")
	ErrRemote        = errors.New("remote call failed")
)
