package normalize

import (
	"errors"
	"fmt"
)

// ErrInvalidEvent marks a raw record that could not be turned into an Event.
// Callers skip such records; it never fails a whole request.
var ErrInvalidEvent = errors.New("invalid event")

// InvalidEventError describes why a single record was rejected.
type InvalidEventError struct {
	Index  int    // position of the record in the input slice
	ID     string // record id when one could be read
	Reason string
}

func (e *InvalidEventError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid event %q at index %d: %s", e.ID, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid event at index %d: %s", e.Index, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidEvent) match.
func (e *InvalidEventError) Is(target error) bool {
	return target == ErrInvalidEvent
}
