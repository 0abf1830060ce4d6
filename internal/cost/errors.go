package cost

import (
	"errors"
	"fmt"

	"github.com/roach88/autopar/internal/ir"
)

// InsufficientDataError rejects a candidate whose cost cannot be grounded in
// the observed run: a goal was never executed, or the collector recorded no
// measurement for it.
//
// This error is internal to selection. The selector skips the candidate and
// moves on; it never surfaces as a user-facing failure.
type InsufficientDataError struct {
	// ConjunctionID identifies the conjunction being scored.
	ConjunctionID string

	// CallSite is the offending site, when the rejection is site-specific.
	CallSite *ir.CallSiteID

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	if e.CallSite != nil {
		return fmt.Sprintf("insufficient data in %s: %s: %s",
			e.ConjunctionID, ir.CanonicalPath(*e.CallSite), e.Reason)
	}
	return fmt.Sprintf("insufficient data in %s: %s", e.ConjunctionID, e.Reason)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
// Uses errors.As to handle wrapped errors.
func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}
