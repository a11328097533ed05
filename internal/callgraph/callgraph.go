// Package callgraph turns slice report rows into a lattice call graph.
package callgraph

import (
	"github.com/zboralski/lattice"

	"slicer/internal/analyzer"
	"slicer/internal/events"
)

// Build constructs a lattice.Graph from report rows. Each function becomes a
// node, in order of first appearance. Each row becomes a caller -> callee
// edge; rows that differ only in call site or thread collapse into one edge.
// The empty function of thread start and flush is shown as "<none>", or as
// "<none>'" (with more quotes as needed) when a real function already has
// that name.
func Build(rows []events.Row) *lattice.Graph {
	g := &lattice.Graph{}
	none := noneName(rows)
	seen := make(map[string]bool)
	type edgeKey struct{ caller, callee string }
	seenEdge := make(map[edgeKey]bool)
	addNode := func(name string) string {
		if name == "" {
			name = none
		}
		if !seen[name] {
			seen[name] = true
			g.Nodes = append(g.Nodes, name)
		}
		return name
	}
	for _, r := range rows {
		caller := addNode(r.Calling.Name)
		callee := addNode(r.Called.Name)
		k := edgeKey{caller, callee}
		if !seenEdge[k] {
			seenEdge[k] = true
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: caller,
				Callee: callee,
			})
		}
	}
	return g
}

// noneName picks a node name for the empty function that no row uses.
func noneName(rows []events.Row) string {
	used := make(map[string]bool)
	for _, r := range rows {
		used[r.Calling.Name] = true
		used[r.Called.Name] = true
	}
	name := analyzer.DisplayName("")
	for used[name] {
		name += "'"
	}
	return name
}
