package queue

import "errors"

// Sentinel errors for the queue.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
