package service

import "github.com/okian/fixturedensity/internal/domain/types"

// ErrInvalidRequest is returned for requests the service cannot evaluate.
var ErrInvalidRequest = types.ErrInvalidRequest
