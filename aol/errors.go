package aol

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotConfigured is returned when iteration is requested from a
// subscriber that has no log behind it.
var ErrNotConfigured = errors.New("aol: log not configured")

// ErrTruncatedTail marks a log that ends in the middle of a record,
// typically after an abrupt process termination. Everything before the
// partial record is intact; callers are expected to stop iterating and
// carry on with the records decoded so far.
var ErrTruncatedTail = errors.New("aol: log ends mid-record")

// MalformedRecordError reports a record that could not be decoded: an
// unknown operation byte, a length that cannot fit in memory, or a payload
// the codec rejected.
type MalformedRecordError struct {
	// Offset is the byte offset of the start of the failed record.
	Offset int64
	// Reason describes what failed; Err carries the codec error if any.
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("aol: malformed record at offset %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("aol: malformed record at offset %d: %s", e.Offset, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
