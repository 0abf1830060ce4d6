package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgram() *Program {
	return &Program{
		Name: "mandelbrot",
		Conjunctions: []Conjunction{
			{
				ID:         "mandelbrot.row/0/c0",
				Pos:        SourcePos{File: "mandelbrot.m", Line: 40},
				EntryCount: 600,
				Goals: []Goal{
					{
						Kind:     GoalCall,
						CallSite: &CallSiteID{Module: "mandelbrot", Procedure: "escape", Index: 0},
						Produces: []string{"N"},
					},
					{
						Kind:     GoalCall,
						CallSite: &CallSiteID{Module: "mandelbrot", Procedure: "shade", Index: 1},
						Consumes: []string{"N"},
						Produces: []string{"C"},
					},
				},
			},
		},
	}
}

func TestProfileHashStable(t *testing.T) {
	a := ProfileHash(testProgram())
	b := ProfileHash(testProgram())
	assert.Equal(t, a, b, "same structure must hash identically")
	require.Len(t, a, 64, "hex-encoded SHA-256")
}

func TestProfileHashSensitivity(t *testing.T) {
	base := ProfileHash(testProgram())

	renamed := testProgram()
	renamed.Name = "raytracer"
	assert.NotEqual(t, base, ProfileHash(renamed))

	recount := testProgram()
	recount.Conjunctions[0].EntryCount = 601
	assert.NotEqual(t, base, ProfileHash(recount))

	revar := testProgram()
	revar.Conjunctions[0].Goals[1].Consumes = nil
	assert.NotEqual(t, base, ProfileHash(revar))
}

func TestProfileHashEmptyVarSetBoundary(t *testing.T) {
	// Moving a variable between Consumes and Produces must change the hash
	// even though the concatenated variable lists are identical.
	a := &Program{Conjunctions: []Conjunction{{Goals: []Goal{
		{Kind: GoalUnify, Consumes: []string{"X"}},
	}}}}
	b := &Program{Conjunctions: []Conjunction{{Goals: []Goal{
		{Kind: GoalUnify, Produces: []string{"X"}},
	}}}}
	assert.NotEqual(t, ProfileHash(a), ProfileHash(b))
}

func TestCallSiteHashDomainSeparated(t *testing.T) {
	cs := CallSiteID{Module: "list", Procedure: "map", Index: 0}
	h := CallSiteHash(cs)
	require.Len(t, h, 64)
	// Domain separation: the raw path must not hash to the same value under
	// a different domain (spot check against the profile domain).
	assert.NotEqual(t, h, hashWithDomain(DomainProfile, []byte(CanonicalPath(cs))))
}
