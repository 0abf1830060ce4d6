package feedback

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/roach88/autopar/internal/cost"
	"github.com/roach88/autopar/internal/deps"
	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
	"github.com/roach88/autopar/internal/selector"
)

// Format version bounds understood by this build.
const (
	MinVersion uint16 = 1
	MaxVersion uint16 = 1
)

// Well-known extension tags written by this build. Readers treat every tag,
// known or not, as opaque "additional data".
const (
	ExtRunID       = "run_id"
	ExtProfileHash = "profile_hash"
)

// Candidate is one serialized parallelization recommendation.
type Candidate struct {
	ConjID string       `json:"conj_id"`
	Pos    ir.SourcePos `json:"pos"`

	// First and Last bound the inclusive goal-index range within the
	// conjunction.
	First int `json:"first"`
	Last  int `json:"last"`

	// PrimarySite is the first call site in the range, when one exists.
	PrimarySite *ir.CallSiteID `json:"primary_site,omitempty"`

	PerGoal []cost.GoalCost `json:"per_goal"`

	SequentialCost float64 `json:"sequential_cost"`
	ParallelCost   float64 `json:"parallel_cost"`
	Speedup        float64 `json:"speedup"`

	Edges []deps.Edge `json:"edges,omitempty"`
}

// Extension is one tag-length-value trailer record.
type Extension struct {
	Tag     string `json:"tag"`
	Payload []byte `json:"payload"`
}

// Artifact is the whole feedback file: program identity plus the ordered
// candidate sequence. Written once; read back as an independent immutable
// instance.
type Artifact struct {
	Version     uint16      `json:"version"`
	ProgramName string      `json:"program_name"`
	Candidates  []Candidate `json:"candidates"`
	Extensions  []Extension `json:"extensions,omitempty"`
}

// FromSelection builds the artifact for a completed analysis run, taking
// ownership of the selected candidates by value. The artifact is stamped
// with a fresh run ID and the profile's content hash as extensions.
func FromSelection(model *profile.Model, selected []selector.Candidate) *Artifact {
	a := &Artifact{
		Version:     MaxVersion,
		ProgramName: model.Name(),
	}
	for i := range selected {
		s := &selected[i]
		a.Candidates = append(a.Candidates, Candidate{
			ConjID:         s.ConjID,
			Pos:            s.Pos,
			First:          s.First,
			Last:           s.Last,
			PrimarySite:    s.PrimarySite,
			PerGoal:        s.Estimate.PerGoal,
			SequentialCost: s.Estimate.Sequential,
			ParallelCost:   s.Estimate.Parallel,
			Speedup:        s.Speedup,
			Edges:          s.Estimate.Edges,
		})
	}
	a.Extensions = []Extension{
		{Tag: ExtRunID, Payload: []byte(uuid.New().String())},
		{Tag: ExtProfileHash, Payload: []byte(model.Hash())},
	}
	return a
}

// ExtensionByTag returns the payload of the first extension with the given
// tag, or false when absent.
func (a *Artifact) ExtensionByTag(tag string) ([]byte, bool) {
	for i := range a.Extensions {
		if a.Extensions[i].Tag == tag {
			return a.Extensions[i].Payload, true
		}
	}
	return nil, false
}

// Validate checks the structural invariants the codec enforces on decode.
// Encode refuses artifacts that fail it, so an invariant-violating file can
// never be produced in the first place.
func (a *Artifact) Validate() error {
	if a.Version < MinVersion || a.Version > MaxVersion {
		return fmt.Errorf("version %d outside supported range [%d, %d]", a.Version, MinVersion, MaxVersion)
	}
	for i := range a.Candidates {
		if err := a.Candidates[i].validate(); err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	return nil
}

func (c *Candidate) validate() error {
	if c.First < 0 || c.Last < c.First {
		return fmt.Errorf("invalid goal range [%d, %d]", c.First, c.Last)
	}
	if err := checkCost("sequential cost", c.SequentialCost); err != nil {
		return err
	}
	if err := checkCost("parallel cost", c.ParallelCost); err != nil {
		return err
	}
	if err := checkCost("speedup", c.Speedup); err != nil {
		return err
	}
	for _, g := range c.PerGoal {
		if g.Calls < 0 {
			return fmt.Errorf("goal %d: negative call count %d", g.Index, g.Calls)
		}
		if err := checkCost(fmt.Sprintf("goal %d cost", g.Index), g.Cost); err != nil {
			return err
		}
	}
	for _, e := range c.Edges {
		if e.Producer < 0 || e.Producer >= e.Consumer {
			return fmt.Errorf("edge %s: producer %d not before consumer %d", e.Variable, e.Producer, e.Consumer)
		}
		if e.Producer < c.First || e.Consumer > c.Last {
			return fmt.Errorf("edge %s: endpoints [%d, %d] outside goal range [%d, %d]",
				e.Variable, e.Producer, e.Consumer, c.First, c.Last)
		}
	}
	return nil
}

func checkCost(what string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not finite", what)
	}
	if v < 0 {
		return fmt.Errorf("negative %s %g", what, v)
	}
	return nil
}
