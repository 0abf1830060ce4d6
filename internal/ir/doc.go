// Package ir provides the intermediate representation of a profiled program
// as seen by the parallelism advisor.
//
// This package contains type definitions and canonical-identity helpers only.
// All other internal packages import ir; ir imports nothing internal. This
// ensures IR remains the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Goals form a tagged union (GoalKind); switches over kinds must be
//     exhaustive, with any default case returning an explicit error
//   - Conjunction order is program order and is never reordered here
//   - Call-site identity uses NFC-normalized canonical paths, so the same
//     site hashes identically regardless of the source encoding
package ir
