package ir

import "fmt"

// CallSiteID uniquely locates a call in the profiled program.
// Assigned by the external collector; immutable once assigned.
type CallSiteID struct {
	Module    string `json:"module"`
	Procedure string `json:"procedure"`
	Index     int    `json:"index"` // call-site ordinal within the procedure body
}

// SourcePos locates a goal or conjunction in the profiled program's source.
type SourcePos struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// GoalKind discriminates the Goal tagged union.
type GoalKind int

const (
	// GoalCall is a first-order call carrying a CallSiteID.
	GoalCall GoalKind = iota

	// GoalUnify is a unification; treated as free (no measurement needed).
	GoalUnify

	// GoalConjunction is a nested sequential conjunction.
	GoalConjunction

	// GoalDisjunction is a disjunction of alternatives.
	GoalDisjunction

	// GoalIfThenElse is an if-then-else with three inner goals.
	GoalIfThenElse

	// GoalNegation is a negated inner goal.
	GoalNegation
)

// String returns the kind's wire/report name.
func (k GoalKind) String() string {
	switch k {
	case GoalCall:
		return "call"
	case GoalUnify:
		return "unify"
	case GoalConjunction:
		return "conj"
	case GoalDisjunction:
		return "disj"
	case GoalIfThenElse:
		return "ite"
	case GoalNegation:
		return "neg"
	default:
		return fmt.Sprintf("GoalKind(%d)", int(k))
	}
}

// Valid reports whether k is a known goal kind.
func (k GoalKind) Valid() bool {
	return k >= GoalCall && k <= GoalNegation
}

// Goal is one conjunct in a clause body.
//
// Fields are populated per kind:
//   - CallSite: GoalCall only
//   - Inner: compound kinds (GoalConjunction, GoalDisjunction,
//     GoalIfThenElse, GoalNegation)
//   - Consumes/Produces: all kinds; a variable appears in Produces when the
//     goal binds it on exit and it was unbound on entry
type Goal struct {
	Kind     GoalKind    `json:"kind"`
	CallSite *CallSiteID `json:"call_site,omitempty"`
	Pos      SourcePos   `json:"pos"`
	Consumes []string    `json:"consumes,omitempty"`
	Produces []string    `json:"produces,omitempty"`
	Inner    []Goal      `json:"inner,omitempty"`
}

// IsAtomic reports whether the goal has no inner goals.
func (g *Goal) IsAtomic() bool {
	switch g.Kind {
	case GoalCall, GoalUnify:
		return true
	case GoalConjunction, GoalDisjunction, GoalIfThenElse, GoalNegation:
		return false
	default:
		// Unknown kinds are treated as opaque atoms; callers that need
		// strictness must check Kind.Valid() first.
		return true
	}
}

// Validate checks per-kind structural invariants.
func (g *Goal) Validate() error {
	if !g.Kind.Valid() {
		return fmt.Errorf("unknown goal kind %d", int(g.Kind))
	}
	switch g.Kind {
	case GoalCall:
		if g.CallSite == nil {
			return fmt.Errorf("call goal at %s:%d has no call site", g.Pos.File, g.Pos.Line)
		}
	case GoalUnify:
		// No structural requirements beyond variable sets.
	case GoalConjunction, GoalDisjunction:
		if len(g.Inner) == 0 {
			return fmt.Errorf("%s goal at %s:%d has no inner goals", g.Kind, g.Pos.File, g.Pos.Line)
		}
	case GoalIfThenElse:
		if len(g.Inner) != 3 {
			return fmt.Errorf("if-then-else at %s:%d has %d inner goals, want 3", g.Pos.File, g.Pos.Line, len(g.Inner))
		}
	case GoalNegation:
		if len(g.Inner) != 1 {
			return fmt.Errorf("negation at %s:%d has %d inner goals, want 1", g.Pos.File, g.Pos.Line, len(g.Inner))
		}
	}
	for i := range g.Inner {
		if err := g.Inner[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Conjunction is an ordered sequence of goals sharing a clause context.
// Order is program order: a dependency can only run producer-before-consumer.
type Conjunction struct {
	// ID identifies the conjunction within the program (collector-assigned,
	// stable across runs of the same binary).
	ID string `json:"id"`

	Pos SourcePos `json:"pos"`

	// EntryCount is how many times the conjunction body was entered in the
	// observed run. Goal call counts are relative to this: a goal called
	// more often than EntryCount sits inside recursion or iteration.
	EntryCount int64 `json:"entry_count"`

	Goals []Goal `json:"goals"`
}

// Program is the static structure of one profiled program: its name and the
// conjunctions the collector recorded, in collector order.
type Program struct {
	Name         string        `json:"name"`
	Conjunctions []Conjunction `json:"conjunctions"`
}
