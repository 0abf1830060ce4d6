// Package deps builds the variable dependency graph of a conjunction.
//
// Two goals are dependent when a later goal consumes a variable an earlier
// goal produced. The graph is recomputed per analysis pass and never stored;
// edges always point forward in program order.
package deps

import (
	"sort"

	"github.com/roach88/autopar/internal/ir"
)

// Edge records that goal Producer binds Variable and goal Consumer reads it.
// Indices are positions within the conjunction; Producer < Consumer always.
type Edge struct {
	Producer int    `json:"producer"`
	Consumer int    `json:"consumer"`
	Variable string `json:"variable"`
}

// Graph is the full dependency graph of one conjunction.
type Graph struct {
	n     int
	edges []Edge
	// succ[i] lists direct consumers of goal i, ascending, deduplicated.
	succ [][]int
}

// Analyze computes all dependency edges of a conjunction in O(n²) over the
// goal count (clause bodies are small, so no better asymptotics are needed).
//
// A goal consuming a variable no earlier goal produced depends on an
// external, pre-bound input; that is not an edge. When several earlier goals
// produce the same variable (alternate bindings the collector flattened),
// the earliest producer wins.
func Analyze(conj *ir.Conjunction) *Graph {
	g := &Graph{
		n:    len(conj.Goals),
		succ: make([][]int, len(conj.Goals)),
	}

	// producer[v] = index of the earliest goal producing v.
	producer := make(map[string]int)
	for i := range conj.Goals {
		goal := &conj.Goals[i]
		for _, v := range goal.Consumes {
			p, ok := producer[v]
			if !ok || p >= i {
				continue // external input, or not yet produced in program order
			}
			g.addEdge(Edge{Producer: p, Consumer: i, Variable: v})
		}
		for _, v := range goal.Produces {
			if _, ok := producer[v]; !ok {
				producer[v] = i
			}
		}
	}

	sort.Slice(g.edges, func(a, b int) bool {
		ea, eb := g.edges[a], g.edges[b]
		if ea.Producer != eb.Producer {
			return ea.Producer < eb.Producer
		}
		if ea.Consumer != eb.Consumer {
			return ea.Consumer < eb.Consumer
		}
		return ea.Variable < eb.Variable
	})
	for i := range g.succ {
		sort.Ints(g.succ[i])
	}
	return g
}

func (g *Graph) addEdge(e Edge) {
	g.edges = append(g.edges, e)
	for _, s := range g.succ[e.Producer] {
		if s == e.Consumer {
			return
		}
	}
	g.succ[e.Producer] = append(g.succ[e.Producer], e.Consumer)
}

// Edges returns all edges in deterministic (producer, consumer, variable)
// order. The returned slice is shared; callers must not mutate it.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// EdgesWithin returns the edges whose endpoints both fall inside the
// inclusive goal-index range [first, last], in deterministic order.
func (g *Graph) EdgesWithin(first, last int) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Producer >= first && e.Consumer <= last {
			out = append(out, e)
		}
	}
	return out
}

// Dependent reports whether goal j transitively depends on goal i (a
// directed path i → … → j exists). i must precede j in program order;
// otherwise no path can exist and false is returned.
func (g *Graph) Dependent(i, j int) bool {
	if i >= j || i < 0 || j >= g.n {
		return false
	}
	// Plain DFS; conjunctions are tiny.
	seen := make([]bool, g.n)
	stack := []int{i}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.succ[cur] {
			if s == j {
				return true
			}
			if !seen[s] && s < j {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}

// Independent reports whether two goals share no variables, directly or
// through intermediate goals, in either order.
func (g *Graph) Independent(i, j int) bool {
	if i == j {
		return false
	}
	if i > j {
		i, j = j, i
	}
	return !g.Dependent(i, j)
}

// FullyIndependent reports whether the goal at index i has no edges at all,
// in or out. Such goals are the cheapest to parallelize: no synchronization
// is ever needed around them.
func (g *Graph) FullyIndependent(i int) bool {
	for _, e := range g.edges {
		if e.Producer == i || e.Consumer == i {
			return false
		}
	}
	return true
}
