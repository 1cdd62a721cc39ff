package parser

import (
	"errors"
	"fmt"
)

// ErrMalformedTimestamp is returned (wrapped in a *TimestampError) when a
// line's leading token is not a [HH:MM:SS] or [HH:MM:SS.fff] timestamp.
// It is fatal for the whole combat log.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// TimestampError reports which line carried the bad timestamp.
type TimestampError struct {
	Line  int // 1-based
	Token string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("line %d: %s %q", e.Line, ErrMalformedTimestamp, e.Token)
}

func (e *TimestampError) Unwrap() error { return ErrMalformedTimestamp }
