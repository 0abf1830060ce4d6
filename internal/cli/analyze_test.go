package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autopar/internal/feedback"
	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
	"github.com/roach88/autopar/internal/store"
)

// writeFixtureProfile creates a profile database with one conjunction of
// two independent goals (costs 10 and 15) and one with a dependent pair.
func writeFixtureProfile(t *testing.T) string {
	t.Helper()

	site := func(proc string, index int) ir.CallSiteID {
		return ir.CallSiteID{Module: "demo", Procedure: proc, Index: index}
	}
	a, b := site("a", 0), site("b", 1)
	p, q := site("p", 0), site("q", 1)

	program := ir.Program{
		Name: "demo",
		Conjunctions: []ir.Conjunction{
			{
				ID:         "demo.main/0/c0",
				Pos:        ir.SourcePos{File: "demo.m", Line: 10},
				EntryCount: 1,
				Goals: []ir.Goal{
					{Kind: ir.GoalCall, CallSite: &a, Produces: []string{"A"}},
					{Kind: ir.GoalCall, CallSite: &b, Produces: []string{"B"}},
				},
			},
			{
				ID:         "demo.main/1/c0",
				Pos:        ir.SourcePos{File: "demo.m", Line: 20},
				EntryCount: 1,
				Goals: []ir.Goal{
					{Kind: ir.GoalCall, CallSite: &p, Produces: []string{"X"}},
					{Kind: ir.GoalCall, CallSite: &q, Consumes: []string{"X"}},
				},
			},
		},
	}
	measurements := map[string]profile.Measurement{
		ir.CanonicalPath(a): {Calls: 1, TotalCost: 10},
		ir.CanonicalPath(b): {Calls: 1, TotalCost: 15},
		ir.CanonicalPath(p): {Calls: 1, TotalCost: 10},
		ir.CanonicalPath(q): {Calls: 1, TotalCost: 10},
	}

	path := filepath.Join(t.TempDir(), "demo.profile.db")
	st, err := store.Init(path)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.WriteProfile(context.Background(), program, measurements))
	return path
}

func TestAnalyzeWritesFeedback(t *testing.T) {
	db := writeFixtureProfile(t)
	out := filepath.Join(t.TempDir(), "demo.feedback")

	_, _, err := execute(t, "analyze", "--db", db, "--out", out)
	require.NoError(t, err)

	artifact, err := feedback.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "demo", artifact.ProgramName)
	require.NotEmpty(t, artifact.Candidates)

	// Independent pair (speedup 1.667) outranks the dependent pair.
	first := artifact.Candidates[0]
	assert.Equal(t, "demo.main/0/c0", first.ConjID)
	assert.InDelta(t, 25.0/15.0, first.Speedup, 1e-9)

	_, ok := artifact.ExtensionByTag(feedback.ExtRunID)
	assert.True(t, ok)
	_, ok = artifact.ExtensionByTag(feedback.ExtProfileHash)
	assert.True(t, ok)
}

func TestAnalyzeThresholdFlag(t *testing.T) {
	db := writeFixtureProfile(t)
	out := filepath.Join(t.TempDir(), "demo.feedback")

	// A threshold above both speedups leaves an empty candidate list.
	_, _, err := execute(t, "analyze", "--db", db, "--out", out, "--min-speedup", "3.0")
	require.NoError(t, err)

	artifact, err := feedback.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, artifact.Candidates)
}

func TestAnalyzeConfigFile(t *testing.T) {
	db := writeFixtureProfile(t)
	out := filepath.Join(t.TempDir(), "demo.feedback")
	tuning := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(tuning, []byte("min_speedup: 3.0\n"), 0o644))

	_, _, err := execute(t, "analyze", "--db", db, "--out", out, "--config", tuning)
	require.NoError(t, err)

	artifact, err := feedback.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, artifact.Candidates)
}

func TestAnalyzeFlagOverridesConfig(t *testing.T) {
	db := writeFixtureProfile(t)
	out := filepath.Join(t.TempDir(), "demo.feedback")
	tuning := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(tuning, []byte("min_speedup: 3.0\n"), 0o644))

	_, _, err := execute(t, "analyze", "--db", db, "--out", out,
		"--config", tuning, "--min-speedup", "1.05")
	require.NoError(t, err)

	artifact, err := feedback.ReadFile(out)
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.Candidates, "explicit flag must win over the tuning file")
}

func TestAnalyzeDeterministicCandidates(t *testing.T) {
	db := writeFixtureProfile(t)
	dir := t.TempDir()

	read := func(name string) *feedback.Artifact {
		out := filepath.Join(dir, name)
		_, _, err := execute(t, "analyze", "--db", db, "--out", out)
		require.NoError(t, err)
		a, err := feedback.ReadFile(out)
		require.NoError(t, err)
		return a
	}

	first := read("one.feedback")
	second := read("two.feedback")
	// Run identity differs; the recommendations must not.
	assert.Equal(t, first.Candidates, second.Candidates)
	assert.Equal(t, first.ProgramName, second.ProgramName)
}

func TestAnalyzeMissingDatabase(t *testing.T) {
	out := filepath.Join(t.TempDir(), "demo.feedback")
	_, _, err := execute(t, "analyze", "--db", filepath.Join(t.TempDir(), "absent.db"), "--out", out)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no feedback file on failure")
}

func TestAnalyzeInvalidThreshold(t *testing.T) {
	db := writeFixtureProfile(t)
	out := filepath.Join(t.TempDir(), "demo.feedback")

	_, _, err := execute(t, "analyze", "--db", db, "--out", out, "--min-speedup", "0.5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestAnalyzeVerboseDiagnostics(t *testing.T) {
	db := writeFixtureProfile(t)
	out := filepath.Join(t.TempDir(), "demo.feedback")

	stdout, stderr, err := execute(t, "analyze", "--verbose", "--db", db, "--out", out)
	require.NoError(t, err)
	assert.Empty(t, stdout, "diagnostics go to stderr only")
	assert.Contains(t, stderr, "loaded profile for demo")
	assert.Contains(t, stderr, "wrote feedback")
}
