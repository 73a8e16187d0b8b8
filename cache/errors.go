package cache

import (
	"errors"
	"fmt"
)

// Construction-time configuration errors.
var (
	// ErrMissingDir is returned when log options carry a cache name but no
	// directory.
	ErrMissingDir = errors.New("cache: log configured without a directory")
	// ErrMissingName is returned when log options carry a directory but no
	// cache name.
	ErrMissingName = errors.New("cache: log configured without a cache name")
	// ErrNegativeFlushPeriod is returned for a negative flush period.
	ErrNegativeFlushPeriod = errors.New("cache: negative log flush period")
	// ErrNoLoader is returned by GetOrLoad when no Loader was configured
	// in Options.
	ErrNoLoader = errors.New("cache: no Loader provided")
)

// ReplayError reports that startup replay could not decode the log past
// the given byte offset. A truncated tail is NOT a ReplayError — replay
// stops at the last complete record and the cache opens normally.
type ReplayError struct {
	Offset int64
	Err    error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("cache: replay failed at log offset %d: %v", e.Offset, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }
