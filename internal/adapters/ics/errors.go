package ics

import "errors"

// ErrDecode wraps any failure to parse an iCalendar stream.
var ErrDecode = errors.New("ics decode failed")
