package render

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"slicer/internal/analyzer"
	"slicer/internal/events"
)

// SliceEdge aggregates every report row between one caller and one callee,
// across call sites and threads.
type SliceEdge struct {
	Caller, Callee string // raw names; "" is thread start or flush
	Calls          uint64
	TotalInstrs    uint64
	MaxInstrs      uint64
	Share          float64 // percent of all instructions in the report
}

// AvgInstrs is the mean slice length over all calls of the edge.
func (e SliceEdge) AvgInstrs() uint64 {
	if e.Calls == 0 {
		return 0
	}
	return e.TotalInstrs / e.Calls
}

// SliceEdges aggregates rows into edges sorted by instructions, descending.
// Ties are ordered by caller then callee.
func SliceEdges(rows []events.Row) []SliceEdge {
	type edgeKey struct{ from, to string }
	byKey := make(map[edgeKey]*SliceEdge)
	var total uint64
	for _, r := range rows {
		k := edgeKey{r.Calling.Name, r.Called.Name}
		e, ok := byKey[k]
		if !ok {
			e = &SliceEdge{Caller: k.from, Callee: k.to}
			byKey[k] = e
		}
		e.Calls += r.CallCount
		e.TotalInstrs += r.TotalInstrs
		if r.CallCount > 0 && r.MaxInstrs > e.MaxInstrs {
			e.MaxInstrs = r.MaxInstrs
		}
		total += r.TotalInstrs
	}

	edges := make([]SliceEdge, 0, len(byKey))
	for _, e := range byKey {
		if total > 0 {
			e.Share = float64(e.TotalInstrs) / float64(total) * 100.0
		}
		edges = append(edges, *e)
	}
	slices.SortFunc(edges, func(a, b SliceEdge) int {
		if c := cmp.Compare(b.TotalInstrs, a.TotalInstrs); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Caller, b.Caller); c != 0 {
			return c
		}
		return cmp.Compare(a.Callee, b.Callee)
	})
	return edges
}

// SliceGraphDOT renders the caller -> callee graph of a report as DOT.
// Edges carry call counts and average slice length; their color and width
// follow their share of all instructions. Functions are clustered by the
// source file they are declared in. maxEdges keeps only the heaviest edges
// (0 = all).
func SliceGraphDOT(rows []events.Row, title string, t Theme, maxEdges int) string {
	edges := SliceEdges(rows)
	if maxEdges > 0 && len(edges) > maxEdges {
		edges = edges[:maxEdges]
	}

	// Declaring file of each function, first seen wins.
	fileOf := make(map[string]string)
	for _, r := range rows {
		for _, f := range []events.Function{r.Calling, r.Called} {
			if _, ok := fileOf[f.Name]; !ok {
				fileOf[f.Name] = f.Loc.File
			}
		}
	}

	refNodes := make(map[string]bool)
	for _, e := range edges {
		refNodes[e.Caller] = true
		refNodes[e.Callee] = true
	}
	fileFuncs := make(map[string][]string)
	var noFile []string
	for name := range refNodes {
		if f := fileOf[name]; f != "" {
			fileFuncs[f] = append(fileFuncs[f], name)
		} else {
			noFile = append(noFile, name)
		}
	}

	var b strings.Builder
	b.WriteString("digraph slices {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  compound=true;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.4;\n")
	b.WriteString("  ranksep=0.6;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=9, fontcolor=%q, height=0.3, margin=\"0.12,0.06\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=vee];\n")
	if title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(title))
	}
	b.WriteByte('\n')

	files := make([]string, 0, len(fileFuncs))
	for f := range fileFuncs {
		files = append(files, f)
	}
	slices.Sort(files)
	for _, file := range files {
		names := fileFuncs[file]
		slices.Sort(names)
		if len(names) < 2 {
			// Singletons go at top level.
			noFile = append(noFile, names...)
			continue
		}
		fmt.Fprintf(&b, "  subgraph %s {\n", "cluster_"+dotID(file))
		fmt.Fprintf(&b, "    label=<<font point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.ClusterLabel, dotEscape(file))
		fmt.Fprintf(&b, "    style=dotted; color=%q; penwidth=0.3;\n", t.ClusterBorder)
		for _, name := range names {
			writeNode(&b, "    ", name, t)
		}
		fmt.Fprintf(&b, "  }\n")
	}
	slices.Sort(noFile)
	for _, name := range noFile {
		writeNode(&b, "  ", name, t)
	}
	b.WriteByte('\n')

	for _, e := range edges {
		color := t.edgeColor(e.Share)
		style := "solid"
		if e.Callee == "" {
			color, style = t.EdgeFlush, "dashed"
		}
		attrs := fmt.Sprintf("color=%q, style=%q, penwidth=%.1f", color, style, 0.5+e.Share/10)
		attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%dx avg %d</font>>", color, e.Calls, e.AvgInstrs())
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(e.Caller), dotID(e.Callee), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

func writeNode(b *strings.Builder, indent, name string, t Theme) {
	label := truncLabel(analyzer.DisplayName(name), 60)
	if name == "" {
		fmt.Fprintf(b, "%s%s [label=%q, fillcolor=%q, fontcolor=%q];\n", indent, dotID(name), label, t.NoneFill, t.ExternalText)
		return
	}
	fmt.Fprintf(b, "%s%s [label=%q];\n", indent, dotID(name), label)
}
