// Package testutil provides fixture builders shared by package tests.
//
// The builders produce fully deterministic programs and profile models so
// that analysis output can be compared byte-for-byte across runs and against
// golden files.
package testutil

import (
	"fmt"

	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
)

// GoalSpec describes one goal for ConjunctionOf.
type GoalSpec struct {
	// Proc names the called procedure. Empty means a unification goal.
	Proc string

	// Calls and TotalCost populate the site's measurement (call goals only).
	Calls     int64
	TotalCost float64

	Consumes []string
	Produces []string
}

// ProgramBuilder accumulates conjunctions and measurements for one test
// program.
type ProgramBuilder struct {
	program      ir.Program
	measurements map[string]profile.Measurement
}

// NewProgram creates a builder for a program with the given name.
func NewProgram(name string) *ProgramBuilder {
	return &ProgramBuilder{
		program:      ir.Program{Name: name},
		measurements: map[string]profile.Measurement{},
	}
}

// AddConjunction appends a conjunction built from goal specs. Call sites are
// assigned sequential indices within the conjunction; positions are derived
// from the conjunction's ordinal so ordering tie-breaks stay stable.
func (b *ProgramBuilder) AddConjunction(entryCount int64, specs ...GoalSpec) *ProgramBuilder {
	ord := len(b.program.Conjunctions)
	conj := ir.Conjunction{
		ID:         fmt.Sprintf("%s.main/%d/c0", b.program.Name, ord),
		Pos:        ir.SourcePos{File: b.program.Name + ".m", Line: 10 * (ord + 1)},
		EntryCount: entryCount,
	}
	for i, spec := range specs {
		goal := ir.Goal{
			Kind:     ir.GoalUnify,
			Pos:      ir.SourcePos{File: conj.Pos.File, Line: conj.Pos.Line + i + 1},
			Consumes: spec.Consumes,
			Produces: spec.Produces,
		}
		if spec.Proc != "" {
			site := ir.CallSiteID{Module: b.program.Name, Procedure: spec.Proc, Index: i}
			goal.Kind = ir.GoalCall
			goal.CallSite = &site
			b.measurements[ir.CanonicalPath(site)] = profile.Measurement{
				Calls:     spec.Calls,
				TotalCost: spec.TotalCost,
			}
		}
		conj.Goals = append(conj.Goals, goal)
	}
	b.program.Conjunctions = append(b.program.Conjunctions, conj)
	return b
}

// Model builds the profile model.
func (b *ProgramBuilder) Model() *profile.Model {
	return profile.NewModel(b.program, b.measurements)
}

// Call is shorthand for a measured call goal.
func Call(proc string, calls int64, totalCost float64, consumes, produces []string) GoalSpec {
	return GoalSpec{
		Proc:      proc,
		Calls:     calls,
		TotalCost: totalCost,
		Consumes:  consumes,
		Produces:  produces,
	}
}

// Unify is shorthand for an unmeasured unification goal.
func Unify(consumes, produces []string) GoalSpec {
	return GoalSpec{Consumes: consumes, Produces: produces}
}
