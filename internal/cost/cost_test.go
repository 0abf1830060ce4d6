package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autopar/internal/deps"
	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
)

// noOverhead makes arithmetic in tests exact unless a test opts in.
func noOverhead() Params {
	return Params{ProduceFraction: 0.5, SyncOverhead: 0}
}

// twoCallConjunction builds a two-call conjunction with the given costs and
// variable sets, plus a model where each site was called once per entry.
func twoCallConjunction(costA, costB float64, varsA, varsB [2][]string) (*profile.Model, *ir.Conjunction) {
	siteA := ir.CallSiteID{Module: "m", Procedure: "a", Index: 0}
	siteB := ir.CallSiteID{Module: "m", Procedure: "b", Index: 1}
	conj := &ir.Conjunction{
		ID:         "m.main/0/c0",
		EntryCount: 1,
		Goals: []ir.Goal{
			{Kind: ir.GoalCall, CallSite: &siteA, Consumes: varsA[0], Produces: varsA[1]},
			{Kind: ir.GoalCall, CallSite: &siteB, Consumes: varsB[0], Produces: varsB[1]},
		},
	}
	model := profile.NewModel(
		ir.Program{Name: "m", Conjunctions: []ir.Conjunction{*conj}},
		map[string]profile.Measurement{
			ir.CanonicalPath(siteA): {Calls: 1, TotalCost: costA},
			ir.CanonicalPath(siteB): {Calls: 1, TotalCost: costB},
		},
	)
	return model, conj
}

func TestIndependentGoalsUseMax(t *testing.T) {
	// Two independent goals with costs 10 and 15: parallel cost is the max,
	// sequential the sum, speedup 25/15.
	model, conj := twoCallConjunction(10, 15,
		[2][]string{nil, {"A"}},
		[2][]string{nil, {"B"}},
	)
	graph := deps.Analyze(conj)
	require.Empty(t, graph.Edges())

	est, err := EstimateRange(model, conj, graph, 0, 1, noOverhead())
	require.NoError(t, err)

	assert.InDelta(t, 25, est.Sequential, 1e-9)
	assert.InDelta(t, 15, est.Parallel, 1e-9)
	assert.InDelta(t, 1.667, est.Speedup(), 1e-3)
	assert.Empty(t, est.Edges)
}

func TestDependentGoalsOverlapPartially(t *testing.T) {
	// B consumes a variable A produces. With produce fraction 0.5 and both
	// costs 10, B starts at 5 and finishes at 15; one edge crossed adds one
	// sync overhead unit.
	model, conj := twoCallConjunction(10, 10,
		[2][]string{nil, {"X"}},
		[2][]string{{"X"}, nil},
	)
	graph := deps.Analyze(conj)
	require.Len(t, graph.Edges(), 1)

	p := Params{ProduceFraction: 0.5, SyncOverhead: 1}
	est, err := EstimateRange(model, conj, graph, 0, 1, p)
	require.NoError(t, err)

	assert.InDelta(t, 20, est.Sequential, 1e-9)
	assert.InDelta(t, 16, est.Parallel, 1e-9) // max(10, 5+10) + 1
	assert.InDelta(t, 1.25, est.Speedup(), 1e-9)
	assert.Len(t, est.Edges, 1)
}

func TestDependentChainCriticalPath(t *testing.T) {
	// G0 -X-> G1 -Y-> G2, costs 10 each, fraction 0.5, no overhead.
	// Starts: 0, 5, 10. Critical path 10 + 10 = 20 vs sequential 30.
	siteFor := func(i int) ir.CallSiteID {
		return ir.CallSiteID{Module: "m", Procedure: "p", Index: i}
	}
	conj := &ir.Conjunction{
		ID:         "m.p/0/c0",
		EntryCount: 1,
		Goals: []ir.Goal{
			{Kind: ir.GoalCall, CallSite: ptr(siteFor(0)), Produces: []string{"X"}},
			{Kind: ir.GoalCall, CallSite: ptr(siteFor(1)), Consumes: []string{"X"}, Produces: []string{"Y"}},
			{Kind: ir.GoalCall, CallSite: ptr(siteFor(2)), Consumes: []string{"Y"}},
		},
	}
	meas := map[string]profile.Measurement{}
	for i := 0; i < 3; i++ {
		meas[ir.CanonicalPath(siteFor(i))] = profile.Measurement{Calls: 1, TotalCost: 10}
	}
	model := profile.NewModel(ir.Program{Name: "m"}, meas)
	graph := deps.Analyze(conj)

	est, err := EstimateRange(model, conj, graph, 0, 2, noOverhead())
	require.NoError(t, err)
	assert.InDelta(t, 30, est.Sequential, 1e-9)
	assert.InDelta(t, 20, est.Parallel, 1e-9)
}

func TestRecursiveGoalWeightedByCallCount(t *testing.T) {
	// The conjunction ran 10 times; site B ran 50 times (inside a loop)
	// with total cost 500. Its per-entry cost is 50, not its 10 average.
	siteA := ir.CallSiteID{Module: "m", Procedure: "a", Index: 0}
	siteB := ir.CallSiteID{Module: "m", Procedure: "b", Index: 1}
	conj := &ir.Conjunction{
		ID:         "m.main/0/c0",
		EntryCount: 10,
		Goals: []ir.Goal{
			{Kind: ir.GoalCall, CallSite: &siteA, Produces: []string{"A"}},
			{Kind: ir.GoalCall, CallSite: &siteB, Produces: []string{"B"}},
		},
	}
	model := profile.NewModel(ir.Program{Name: "m"}, map[string]profile.Measurement{
		ir.CanonicalPath(siteA): {Calls: 10, TotalCost: 100},
		ir.CanonicalPath(siteB): {Calls: 50, TotalCost: 500},
	})

	est, err := EstimateRange(model, conj, deps.Analyze(conj), 0, 1, noOverhead())
	require.NoError(t, err)
	assert.InDelta(t, 60, est.Sequential, 1e-9) // 100/10 + 500/10
	assert.InDelta(t, 50, est.Parallel, 1e-9)
}

func TestZeroCountGoalRejectsCandidate(t *testing.T) {
	// Site B was never executed. The whole candidate is rejected, even
	// though site A has a valid measurement.
	siteA := ir.CallSiteID{Module: "m", Procedure: "a", Index: 0}
	siteB := ir.CallSiteID{Module: "m", Procedure: "b", Index: 1}
	conj := &ir.Conjunction{
		ID:         "m.main/0/c0",
		EntryCount: 1,
		Goals: []ir.Goal{
			{Kind: ir.GoalCall, CallSite: &siteA},
			{Kind: ir.GoalCall, CallSite: &siteB},
		},
	}
	model := profile.NewModel(ir.Program{Name: "m"}, map[string]profile.Measurement{
		ir.CanonicalPath(siteA): {Calls: 3, TotalCost: 30},
		ir.CanonicalPath(siteB): {Calls: 0, TotalCost: 0},
	})

	_, err := EstimateRange(model, conj, deps.Analyze(conj), 0, 1, noOverhead())
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))
	assert.Contains(t, err.Error(), "never executed")
}

func TestMissingMeasurementRejectsCandidate(t *testing.T) {
	model, conj := twoCallConjunction(10, 10,
		[2][]string{nil, nil},
		[2][]string{nil, nil},
	)
	conj.Goals[1].CallSite = &ir.CallSiteID{Module: "m", Procedure: "ghost", Index: 7}

	_, err := EstimateRange(model, conj, deps.Analyze(conj), 0, 1, noOverhead())
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))
	assert.Contains(t, err.Error(), "no measurement")
}

func TestUnenteredConjunctionRejected(t *testing.T) {
	model, conj := twoCallConjunction(10, 10,
		[2][]string{nil, nil},
		[2][]string{nil, nil},
	)
	conj.EntryCount = 0

	_, err := EstimateRange(model, conj, deps.Analyze(conj), 0, 1, noOverhead())
	require.Error(t, err)
	assert.True(t, IsInsufficientData(err))
}

func TestUnifyGoalsAreFree(t *testing.T) {
	siteA := ir.CallSiteID{Module: "m", Procedure: "a", Index: 0}
	conj := &ir.Conjunction{
		ID:         "m.main/0/c0",
		EntryCount: 1,
		Goals: []ir.Goal{
			{Kind: ir.GoalUnify, Produces: []string{"X"}},
			{Kind: ir.GoalCall, CallSite: &siteA, Consumes: []string{"X"}},
		},
	}
	model := profile.NewModel(ir.Program{Name: "m"}, map[string]profile.Measurement{
		ir.CanonicalPath(siteA): {Calls: 1, TotalCost: 8},
	})

	est, err := EstimateRange(model, conj, deps.Analyze(conj), 0, 1, noOverhead())
	require.NoError(t, err)
	assert.InDelta(t, 8, est.Sequential, 1e-9)
}

func TestCompoundGoalSumsInnerCosts(t *testing.T) {
	siteA := ir.CallSiteID{Module: "m", Procedure: "a", Index: 0}
	siteB := ir.CallSiteID{Module: "m", Procedure: "b", Index: 1}
	conj := &ir.Conjunction{
		ID:         "m.main/0/c0",
		EntryCount: 1,
		Goals: []ir.Goal{
			{
				Kind: ir.GoalConjunction,
				Inner: []ir.Goal{
					{Kind: ir.GoalCall, CallSite: &siteA},
					{Kind: ir.GoalCall, CallSite: &siteB},
				},
			},
		},
	}
	model := profile.NewModel(ir.Program{Name: "m"}, map[string]profile.Measurement{
		ir.CanonicalPath(siteA): {Calls: 1, TotalCost: 4},
		ir.CanonicalPath(siteB): {Calls: 1, TotalCost: 6},
	})

	est, err := EstimateRange(model, conj, deps.Analyze(conj), 0, 0, noOverhead())
	require.NoError(t, err)
	assert.InDelta(t, 10, est.Sequential, 1e-9)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	assert.Error(t, Params{ProduceFraction: 0, SyncOverhead: 0}.Validate())
	assert.Error(t, Params{ProduceFraction: 1.5, SyncOverhead: 0}.Validate())
	assert.Error(t, Params{ProduceFraction: 0.5, SyncOverhead: -1}.Validate())
}

func TestBadRangeRejected(t *testing.T) {
	model, conj := twoCallConjunction(1, 1, [2][]string{nil, nil}, [2][]string{nil, nil})
	graph := deps.Analyze(conj)

	_, err := EstimateRange(model, conj, graph, 0, 5, noOverhead())
	assert.Error(t, err)
	_, err = EstimateRange(model, conj, graph, 1, 0, noOverhead())
	assert.Error(t, err)
	_, err = EstimateRange(model, conj, graph, -1, 1, noOverhead())
	assert.Error(t, err)
}

func TestSpeedupOfZeroCostRange(t *testing.T) {
	assert.Equal(t, 1.0, Estimate{}.Speedup())
}

func ptr[T any](v T) *T { return &v }
