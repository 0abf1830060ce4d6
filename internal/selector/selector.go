// Package selector enumerates parallelization candidates across a profiled
// program, scores them with the cost estimator, and keeps the ones worth
// recommending.
//
// CRITICAL: selection is fully deterministic. Given the same profile model
// and configuration, two runs produce byte-identical candidate lists. Every
// ordering decision is an explicit sort key; map iteration order never leaks
// into results. Parallelizing the per-conjunction enumeration later must not
// change output: conjunctions are independent and the final global sort is
// the single ordering authority.
package selector

import (
	"fmt"
	"sort"

	"github.com/roach88/autopar/internal/cost"
	"github.com/roach88/autopar/internal/deps"
	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
)

// Config holds the selection thresholds and the cost model parameters.
type Config struct {
	// MinSpeedup is the speedup ratio a candidate must exceed to survive.
	// Values at or below 1 would recommend parallelism inside measurement
	// noise.
	MinSpeedup float64 `json:"min_speedup" yaml:"min_speedup"`

	Params cost.Params `json:"params" yaml:"params"`
}

// DefaultConfig returns the stock selection configuration.
func DefaultConfig() Config {
	return Config{
		MinSpeedup: 1.05,
		Params:     cost.DefaultParams(),
	}
}

// Validate checks threshold ranges.
func (c Config) Validate() error {
	if c.MinSpeedup < 1 {
		return fmt.Errorf("min speedup %g below 1 recommends slowdowns", c.MinSpeedup)
	}
	return c.Params.Validate()
}

// Candidate is a contiguous goal-index range of one conjunction proposed for
// parallel execution. Immutable once created; ownership passes to the
// feedback artifact on serialization.
type Candidate struct {
	ConjID string       `json:"conj_id"`
	Pos    ir.SourcePos `json:"pos"`

	// First and Last bound the inclusive goal-index range.
	First int `json:"first"`
	Last  int `json:"last"`

	// PrimarySite is the first call site inside the range, used for stable
	// ordering and reporting. Nil when the range contains no call.
	PrimarySite *ir.CallSiteID `json:"primary_site,omitempty"`

	Estimate cost.Estimate `json:"estimate"`
	Speedup  float64       `json:"speedup"`
}

// GoalCount returns how many goals the candidate covers.
func (c *Candidate) GoalCount() int {
	return c.Last - c.First + 1
}

// contains reports whether c's range fully contains o's.
func (c *Candidate) contains(o *Candidate) bool {
	return c.First <= o.First && o.Last <= c.Last
}

// Select runs candidate selection over every conjunction in the model's
// program and returns the surviving candidates in the deterministic global
// order: speedup descending, goal count descending, then canonical call-site
// path, source position, conjunction ID, and range start ascending.
func Select(model *profile.Model, cfg Config) ([]Candidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("selector config: %w", err)
	}

	var selected []Candidate
	for ci := range model.Program.Conjunctions {
		conj := &model.Program.Conjunctions[ci]
		kept, err := selectInConjunction(model, conj, cfg)
		if err != nil {
			return nil, err
		}
		selected = append(selected, kept...)
	}

	sort.SliceStable(selected, func(a, b int) bool {
		return orderCandidates(&selected[a], &selected[b])
	})
	return selected, nil
}

// selectInConjunction scores every contiguous range of length >= 2 in one
// conjunction and resolves containment conflicts among survivors.
func selectInConjunction(model *profile.Model, conj *ir.Conjunction, cfg Config) ([]Candidate, error) {
	n := len(conj.Goals)
	if n < 2 {
		return nil, nil
	}
	graph := deps.Analyze(conj)

	var scored []Candidate
	for first := 0; first < n-1; first++ {
		for last := first + 1; last < n; last++ {
			est, err := cost.EstimateRange(model, conj, graph, first, last, cfg.Params)
			if err != nil {
				if cost.IsInsufficientData(err) {
					continue // unmeasured range, nothing to recommend
				}
				return nil, fmt.Errorf("conjunction %s [%d, %d]: %w", conj.ID, first, last, err)
			}
			speedup := est.Speedup()
			if speedup <= cfg.MinSpeedup {
				continue
			}
			scored = append(scored, Candidate{
				ConjID:      conj.ID,
				Pos:         conj.Pos,
				First:       first,
				Last:        last,
				PrimarySite: primarySite(conj.Goals[first : last+1]),
				Estimate:    est,
				Speedup:     speedup,
			})
		}
	}

	return resolveContainment(scored), nil
}

// resolveContainment discards, best-ratio-first, any candidate that fully
// contains or is contained by an already-kept candidate. Partially
// overlapping ranges are both viable recommendations and are all kept.
func resolveContainment(scored []Candidate) []Candidate {
	sort.SliceStable(scored, func(a, b int) bool {
		return orderCandidates(&scored[a], &scored[b])
	})

	var kept []Candidate
	for i := range scored {
		c := &scored[i]
		conflict := false
		for k := range kept {
			if kept[k].contains(c) || c.contains(&kept[k]) {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, *c)
		}
	}
	return kept
}

// orderCandidates is the single ordering rule for candidates, within a
// conjunction and globally. Higher speedup first; ties prefer more goals
// (amortizes the transformation cost); remaining ties fall back to stable
// identity keys so iteration accidents can never reorder output.
func orderCandidates(a, b *Candidate) bool {
	if a.Speedup != b.Speedup {
		return a.Speedup > b.Speedup
	}
	if ag, bg := a.GoalCount(), b.GoalCount(); ag != bg {
		return ag > bg
	}
	if c := compareSites(a.PrimarySite, b.PrimarySite); c != 0 {
		return c < 0
	}
	if c := ir.ComparePos(a.Pos, b.Pos); c != 0 {
		return c < 0
	}
	if a.ConjID != b.ConjID {
		return a.ConjID < b.ConjID
	}
	return a.First < b.First
}

// compareSites orders call sites by canonical path, with nil sorting last.
func compareSites(a, b *ir.CallSiteID) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return ir.CompareCallSites(*a, *b)
	}
}

// primarySite returns the first call site among the goals, descending into
// compound goals in program order.
func primarySite(goals []ir.Goal) *ir.CallSiteID {
	for i := range goals {
		g := &goals[i]
		if g.Kind == ir.GoalCall && g.CallSite != nil {
			cs := *g.CallSite
			return &cs
		}
		if inner := primarySite(g.Inner); inner != nil {
			return inner
		}
	}
	return nil
}
