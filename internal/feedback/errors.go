package feedback

import (
	"errors"
	"fmt"
)

// VersionMismatchError is returned when a feedback file's format version is
// outside the range this build understands. No other decoding is attempted.
type VersionMismatchError struct {
	Found    uint16
	Min, Max uint16
}

// Error implements the error interface.
func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("feedback format version %d outside supported range [%d, %d]",
		e.Found, e.Min, e.Max)
}

// CorruptFeedbackError is returned when the bytes violate a structural
// invariant of the format. Decoding stops at the first violation.
type CorruptFeedbackError struct {
	// Reason describes the first violation found.
	Reason string

	// Offset is the byte offset at which decoding stopped.
	Offset int64
}

// Error implements the error interface.
func (e *CorruptFeedbackError) Error() string {
	return fmt.Sprintf("corrupt feedback at byte %d: %s", e.Offset, e.Reason)
}

// IoError wraps a filesystem failure while reading or writing an artifact.
type IoError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes the underlying os error.
func (e *IoError) Unwrap() error {
	return e.Err
}

// IsVersionMismatch reports whether err is a VersionMismatchError.
// Uses errors.As to handle wrapped errors.
func IsVersionMismatch(err error) bool {
	var ve *VersionMismatchError
	return errors.As(err, &ve)
}

// IsCorrupt reports whether err is a CorruptFeedbackError.
func IsCorrupt(err error) bool {
	var ce *CorruptFeedbackError
	return errors.As(err, &ce)
}

// IsIoFailure reports whether err is an IoError.
func IsIoFailure(err error) bool {
	var ie *IoError
	return errors.As(err, &ie)
}
