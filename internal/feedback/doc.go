// Package feedback defines the portable feedback artifact and its versioned
// binary codec.
//
// The artifact is the pipeline's only durable output: the selected parallel
// candidates plus the measurements justifying them. A file written by one
// build must be readable by any build claiming the same format version, so
// every field uses an explicit fixed-width or length-prefixed big-endian
// encoding; nothing relies on Go's default serialization.
//
// Decoding is all-or-nothing. A version outside the supported range fails
// fast with VersionMismatchError before any field is read; any structural
// violation aborts with CorruptFeedbackError describing the first violation
// found. A partially populated artifact is never returned.
//
// The format ends with a tag-length-value extension block. Unknown tags are
// carried through verbatim so a newer compatible writer's extra fields
// survive a round trip and can be rendered instead of silently dropped.
package feedback
