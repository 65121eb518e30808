package types

import "errors"

// ErrInvalidRequest marks a request that cannot be evaluated at all, such as
// an unknown timezone or a missing target key. Individual bad events never
// produce it; they are skipped.
var ErrInvalidRequest = errors.New("invalid request")
