package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalPath returns the canonical string form of a call site:
//
//	module.procedure/index
//
// Module and procedure names are NFC-normalized so that the same site
// compares and hashes identically regardless of how the collector's source
// encoding composed its characters. This is the ONLY string form that should
// be used for identity, ordering, and hashing.
func CanonicalPath(cs CallSiteID) string {
	return fmt.Sprintf("%s.%s/%d",
		norm.NFC.String(cs.Module),
		norm.NFC.String(cs.Procedure),
		cs.Index,
	)
}

// CompareCallSites orders call sites by canonical path.
// Returns -1, 0, or 1 in the manner of strings.Compare.
func CompareCallSites(a, b CallSiteID) int {
	return strings.Compare(CanonicalPath(a), CanonicalPath(b))
}

// ComparePos orders source positions by file then line.
func ComparePos(a, b SourcePos) int {
	if c := strings.Compare(norm.NFC.String(a.File), norm.NFC.String(b.File)); c != 0 {
		return c
	}
	switch {
	case a.Line < b.Line:
		return -1
	case a.Line > b.Line:
		return 1
	default:
		return 0
	}
}
