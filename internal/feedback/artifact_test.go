package feedback

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autopar/internal/cost"
	"github.com/roach88/autopar/internal/selector"
	"github.com/roach88/autopar/internal/testutil"
)

func TestFromSelection(t *testing.T) {
	model := testutil.NewProgram("demo").
		AddConjunction(1,
			testutil.Call("a", 1, 10, nil, []string{"X"}),
			testutil.Call("b", 1, 15, []string{"X"}, nil),
		).
		Model()

	cfg := selector.Config{
		MinSpeedup: 1.05,
		Params:     cost.Params{ProduceFraction: 0.5, SyncOverhead: 0},
	}
	selected, err := selector.Select(model, cfg)
	require.NoError(t, err)
	require.Len(t, selected, 1)

	a := FromSelection(model, selected)
	require.NoError(t, a.Validate())

	assert.Equal(t, MaxVersion, a.Version)
	assert.Equal(t, "demo", a.ProgramName)
	require.Len(t, a.Candidates, 1)

	c := a.Candidates[0]
	assert.Equal(t, selected[0].ConjID, c.ConjID)
	assert.Equal(t, selected[0].First, c.First)
	assert.Equal(t, selected[0].Last, c.Last)
	assert.Equal(t, selected[0].Speedup, c.Speedup)
	assert.Len(t, c.Edges, 1)

	runID, ok := a.ExtensionByTag(ExtRunID)
	require.True(t, ok)
	_, err = uuid.Parse(string(runID))
	assert.NoError(t, err, "run_id extension must carry a UUID")

	hash, ok := a.ExtensionByTag(ExtProfileHash)
	require.True(t, ok)
	assert.Equal(t, model.Hash(), string(hash))
}

func TestFromSelectionEmpty(t *testing.T) {
	model := testutil.NewProgram("quiet").Model()
	a := FromSelection(model, nil)
	require.NoError(t, a.Validate())
	assert.Empty(t, a.Candidates)
	assert.Equal(t, "quiet", a.ProgramName)
}
