// Package report renders a decoded feedback artifact as human-readable
// text.
//
// Rendering is a pure function of the artifact and the verbosity level: it
// never mutates the artifact, and re-rendering produces byte-identical
// output. Blocks returns a restartable lazy sequence so callers can stream
// or collect as they prefer.
package report

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/roach88/autopar/internal/feedback"
	"github.com/roach88/autopar/internal/ir"
)

// Verbosity bounds. Levels control detail only, never content order.
const (
	MinVerbosity     = 0
	MaxVerbosity     = 4
	DefaultVerbosity = 2
)

// Clamp forces a verbosity level into [MinVerbosity, MaxVerbosity].
// The second return reports whether clamping occurred, so callers can warn
// rather than silently accept out-of-range input.
func Clamp(v int) (int, bool) {
	switch {
	case v < MinVerbosity:
		return MinVerbosity, true
	case v > MaxVerbosity:
		return MaxVerbosity, true
	default:
		return v, false
	}
}

// Blocks returns the report as an ordered lazy sequence of text blocks.
// Each block is newline-free at the edges; Write joins them with blank
// lines. The sequence is restartable: ranging twice yields identical
// blocks.
func Blocks(a *feedback.Artifact, verbosity int) iter.Seq[string] {
	v, _ := Clamp(verbosity)
	return func(yield func(string) bool) {
		if !yield(headerBlock(a)) {
			return
		}
		if v >= 1 {
			for i := range a.Candidates {
				if !yield(candidateBlock(&a.Candidates[i], i+1, v)) {
					return
				}
			}
		}
		if v >= MaxVerbosity && len(a.Extensions) > 0 {
			if !yield(extensionsBlock(a)) {
				return
			}
		}
	}
}

// Write renders the full report to w.
func Write(w io.Writer, a *feedback.Artifact, verbosity int) error {
	first := true
	for block := range Blocks(a, verbosity) {
		sep := "\n\n"
		if first {
			sep = ""
			first = false
		}
		if _, err := io.WriteString(w, sep+block); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func headerBlock(a *feedback.Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "parallelism feedback for program: %s\n", a.ProgramName)
	fmt.Fprintf(&b, "candidates selected: %d", len(a.Candidates))
	return b.String()
}

func candidateBlock(c *feedback.Candidate, ordinal, verbosity int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "candidate %d: conjunction %s (%s:%d)",
		ordinal, c.ConjID, c.Pos.File, c.Pos.Line)

	if verbosity >= 2 {
		if c.PrimarySite != nil {
			fmt.Fprintf(&b, "\n  goals [%d, %d] via %s",
				c.First, c.Last, ir.CanonicalPath(*c.PrimarySite))
		} else {
			fmt.Fprintf(&b, "\n  goals [%d, %d]", c.First, c.Last)
		}
		fmt.Fprintf(&b, "\n  speedup: %.3f", c.Speedup)
	}
	if verbosity >= 3 {
		fmt.Fprintf(&b, "\n  sequential cost: %.2f", c.SequentialCost)
		fmt.Fprintf(&b, "\n  parallel estimate: %.2f", c.ParallelCost)
	}
	if verbosity >= 4 {
		for _, g := range c.PerGoal {
			fmt.Fprintf(&b, "\n  goal %d: calls %d, cost/entry %.2f", g.Index, g.Calls, g.Cost)
		}
		for _, e := range c.Edges {
			fmt.Fprintf(&b, "\n  dependency: goal %d -> goal %d on %s", e.Producer, e.Consumer, e.Variable)
		}
	}
	return b.String()
}

// extensionsBlock renders every extension, known tag or not, so data from a
// newer compatible writer is surfaced instead of silently dropped. Payloads
// are quoted; non-printable bytes appear as escapes.
func extensionsBlock(a *feedback.Artifact) string {
	var b strings.Builder
	b.WriteString("additional data:")
	for i := range a.Extensions {
		ext := &a.Extensions[i]
		fmt.Fprintf(&b, "\n  %s: %s", ext.Tag, strconv.Quote(string(ext.Payload)))
	}
	return b.String()
}
