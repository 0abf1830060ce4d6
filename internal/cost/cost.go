// Package cost estimates sequential and parallel execution cost for
// candidate ranges of a conjunction, using the profile model's measurements
// and the dependency graph.
//
// All functions here are pure: same model, same range, same parameters,
// same answer. The estimator never guesses around missing data: a goal
// without a usable measurement rejects the whole candidate with
// InsufficientData rather than scoring it as free.
package cost

import (
	"fmt"

	"github.com/roach88/autopar/internal/deps"
	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
)

// Params are the tunable constants of the cost model.
type Params struct {
	// ProduceFraction is the fraction of a producer goal's cost spent
	// before its shared variable becomes available to a dependent consumer.
	// The profile model carries no intra-goal timing, so a constant
	// fraction stands in for it. Must be in (0, 1].
	ProduceFraction float64 `json:"produce_fraction" yaml:"produce_fraction"`

	// SyncOverhead is the fixed cost added once per dependency edge crossed
	// in parallel, modeling future/barrier signalling. Must be >= 0.
	SyncOverhead float64 `json:"sync_overhead" yaml:"sync_overhead"`
}

// DefaultParams returns the stock cost model constants.
func DefaultParams() Params {
	return Params{
		ProduceFraction: 0.5,
		SyncOverhead:    1.0,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.ProduceFraction <= 0 || p.ProduceFraction > 1 {
		return fmt.Errorf("produce fraction %g outside (0, 1]", p.ProduceFraction)
	}
	if p.SyncOverhead < 0 {
		return fmt.Errorf("negative sync overhead %g", p.SyncOverhead)
	}
	return nil
}

// GoalCost is the per-entry cost contribution of one goal in a candidate.
type GoalCost struct {
	Index int     `json:"index"` // goal index within the conjunction
	Calls int64   `json:"calls"` // observed call count (calls for the primary site; entry count otherwise)
	Cost  float64 `json:"cost"`  // cost per conjunction entry
}

// Estimate is the cost model's verdict on one candidate range.
type Estimate struct {
	// Sequential is the summed per-entry cost of every goal in the range.
	Sequential float64 `json:"sequential"`

	// Parallel is the modeled critical-path cost of running the range in
	// parallel, including synchronization overhead.
	Parallel float64 `json:"parallel"`

	// PerGoal holds each goal's contribution, in goal-index order.
	PerGoal []GoalCost `json:"per_goal"`

	// Edges are the dependency edges inside the range.
	Edges []deps.Edge `json:"edges,omitempty"`
}

// Speedup returns Sequential / Parallel. A range of all-zero-cost goals
// (possible when the range is pure unification) has no meaningful speedup
// and reports 1.
func (e Estimate) Speedup() float64 {
	if e.Parallel <= 0 {
		return 1
	}
	return e.Sequential / e.Parallel
}

// EstimateRange scores the inclusive goal-index range [first, last] of conj.
//
// Sequential cost is the sum of per-entry goal costs, where a goal's
// per-entry cost is its measured total divided by the conjunction's entry
// count: a goal called more often than the body is entered sits inside
// recursion or iteration, and the count multiplies its cost.
//
// Parallel cost is a completion-time recurrence over the range: a goal with
// no in-range producers starts at zero; a dependent goal starts once every
// in-range producer has run its produce fraction. The estimate is the
// latest completion plus SyncOverhead per in-range edge. For independent
// goals this degenerates to max(costs) with no adjustment.
func EstimateRange(model *profile.Model, conj *ir.Conjunction, graph *deps.Graph, first, last int, p Params) (Estimate, error) {
	if err := p.Validate(); err != nil {
		return Estimate{}, err
	}
	if first < 0 || last >= len(conj.Goals) || first > last {
		return Estimate{}, fmt.Errorf("goal range [%d, %d] outside conjunction %q (%d goals)",
			first, last, conj.ID, len(conj.Goals))
	}
	if conj.EntryCount <= 0 {
		return Estimate{}, &InsufficientDataError{
			ConjunctionID: conj.ID,
			Reason:        "conjunction was never entered in the observed run",
		}
	}

	est := Estimate{PerGoal: make([]GoalCost, 0, last-first+1)}
	perEntry := make([]float64, 0, last-first+1)
	for i := first; i <= last; i++ {
		gc, err := goalCost(model, conj, &conj.Goals[i], i)
		if err != nil {
			return Estimate{}, err
		}
		est.PerGoal = append(est.PerGoal, gc)
		est.Sequential += gc.Cost
		perEntry = append(perEntry, gc.Cost)
	}

	est.Edges = graph.EdgesWithin(first, last)

	// start[i] is relative to the range; completion = start + cost.
	start := make([]float64, len(perEntry))
	for _, e := range est.Edges {
		p1 := e.Producer - first
		c1 := e.Consumer - first
		avail := start[p1] + p.ProduceFraction*perEntry[p1]
		if avail > start[c1] {
			start[c1] = avail
		}
	}
	for i, c := range perEntry {
		if done := start[i] + c; done > est.Parallel {
			est.Parallel = done
		}
	}
	est.Parallel += p.SyncOverhead * float64(len(est.Edges))

	return est, nil
}

// goalCost computes one goal's per-entry cost contribution.
//
// The switch over goal kinds is exhaustive; an unknown kind is a structural
// error, never silently costed at zero.
func goalCost(model *profile.Model, conj *ir.Conjunction, g *ir.Goal, index int) (GoalCost, error) {
	switch g.Kind {
	case ir.GoalCall:
		if g.CallSite == nil {
			return GoalCost{}, fmt.Errorf("call goal %d in %q has no call site", index, conj.ID)
		}
		meas, ok := model.MeasurementFor(*g.CallSite)
		if !ok {
			return GoalCost{}, &InsufficientDataError{
				ConjunctionID: conj.ID,
				CallSite:      g.CallSite,
				Reason:        "call site has no measurement",
			}
		}
		if meas.Calls == 0 {
			return GoalCost{}, &InsufficientDataError{
				ConjunctionID: conj.ID,
				CallSite:      g.CallSite,
				Reason:        "call site was never executed",
			}
		}
		return GoalCost{
			Index: index,
			Calls: meas.Calls,
			Cost:  meas.TotalCost / float64(conj.EntryCount),
		}, nil

	case ir.GoalUnify:
		// Unifications are free at the granularity the profile provides.
		return GoalCost{Index: index, Calls: conj.EntryCount}, nil

	case ir.GoalConjunction, ir.GoalDisjunction, ir.GoalIfThenElse, ir.GoalNegation:
		// A compound goal costs what its inner goals cost. Its call count
		// for reporting purposes is the body's entry count.
		total := GoalCost{Index: index, Calls: conj.EntryCount}
		for i := range g.Inner {
			inner, err := goalCost(model, conj, &g.Inner[i], index)
			if err != nil {
				return GoalCost{}, err
			}
			total.Cost += inner.Cost
		}
		return total, nil

	default:
		return GoalCost{}, fmt.Errorf("unknown goal kind %d at goal %d in %q", int(g.Kind), index, conj.ID)
	}
}
