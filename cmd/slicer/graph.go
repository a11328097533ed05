package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	lrender "github.com/zboralski/lattice/render"

	"slicer/internal/analyzer"
	"slicer/internal/callgraph"
	"slicer/internal/output"
	"slicer/internal/render"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	in := fs.String("in", "", "slice report (output.log)")
	out := fs.String("out", "", "output DOT file")
	title := fs.String("title", "", "graph title (defaults to the report name)")
	plain := fs.Bool("plain", false, "unweighted caller/callee graph")
	maxEdges := fs.Int("max-edges", 0, "keep only the heaviest edges (0 = all)")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return fmt.Errorf("--in and --out are required")
	}
	log := lf.logger()

	if *title == "" {
		*title = strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	}

	rows, err := analyzer.ReadReportFile(*in)
	if err != nil {
		return err
	}
	log.Debug().Int("rows", len(rows)).Str("report", *in).Msg("read report")

	var dot string
	if *plain {
		g := callgraph.Build(rows)
		dot = lrender.DOT(g, *title)
		log.Info().Int("nodes", len(g.Nodes)).Int("edges", len(g.Edges)).Msg("built call graph")
	} else {
		dot = render.SliceGraphDOT(rows, *title, render.NASA, *maxEdges)
	}

	if err := output.WriteDOT(*out, dot); err != nil {
		return err
	}
	log.Info().Msgf("wrote %s (%d bytes)", *out, len(dot))
	return nil
}
