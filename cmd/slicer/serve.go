package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	lrender "github.com/zboralski/lattice/render"

	"slicer/internal/analyzer"
	"slicer/internal/callgraph"
	"slicer/internal/events"
	"slicer/internal/render"
)

const notLoaded = "Report not loaded. Use load_report first"

// reportServer answers MCP tool calls over reports loaded from disk.
type reportServer struct {
	log zerolog.Logger

	mu      sync.Mutex
	reports map[string][]events.Row
}

func newReportServer(log zerolog.Logger) *reportServer {
	return &reportServer{log: log, reports: make(map[string][]events.Row)}
}

func (rs *reportServer) rows(path string) ([]events.Row, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rows, ok := rs.reports[path]
	return rows, ok
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	lf := addLogFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	// stdout carries the protocol; logs stay on stderr.
	rs := newReportServer(lf.logger())
	return server.ServeStdio(rs.mcpServer())
}

func (rs *reportServer) mcpServer() *server.MCPServer {
	s := server.NewMCPServer(
		"slicer",
		"1.0.0",
		server.WithLogging(),
	)

	s.AddTool(mcp.NewTool("load_report",
		mcp.WithDescription("Load a slice report (output.log) for analysis"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to the slice report"),
		),
	), rs.loadReport)

	s.AddTool(mcp.NewTool("top_slices",
		mcp.WithDescription("List the heaviest call events: instructions executed between leaving one function and entering the next"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to a loaded slice report"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of events to return (default: 10)"),
		),
		mcp.WithString("sort_by",
			mcp.Description("total, avg, max or calls (default: total)"),
		),
	), rs.topSlices)

	s.AddTool(mcp.NewTool("caller_breakdown",
		mcp.WithDescription("Show where the instructions after leaving a function go, per callee and call site"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to a loaded slice report"),
		),
		mcp.WithString("caller",
			mcp.Required(),
			mcp.Description("Calling function name (empty for thread start)"),
		),
	), rs.callerBreakdown)

	s.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription("Report-wide totals: threads, events, calls, instructions, unique functions"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to a loaded slice report"),
		),
	), rs.getStatistics)

	s.AddTool(mcp.NewTool("callgraph_dot",
		mcp.WithDescription("Render the caller/callee graph of a report as Graphviz DOT"),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Path to a loaded slice report"),
		),
		mcp.WithNumber("max_edges",
			mcp.Description("Keep only the heaviest edges (default: all)"),
		),
		mcp.WithBoolean("plain",
			mcp.Description("Unweighted graph without slice statistics"),
		),
	), rs.callgraphDOT)

	return s
}

func (rs *reportServer) loadReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := analyzer.ReadReportFile(filePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load report: %v", err)), nil
	}

	rs.mu.Lock()
	rs.reports[filePath] = rows
	rs.mu.Unlock()
	rs.log.Info().Str("report", filePath).Int("rows", len(rows)).Msg("loaded report")

	st := analyzer.ComputeStatistics(rows)
	return mcp.NewToolResultText(fmt.Sprintf(`Report loaded.

File: %s
Threads: %d
Events: %d
Calls: %d
Instructions: %d
`, filePath, st.Threads, st.Events, st.TotalCalls, st.TotalInstrs)), nil
}

func (rs *reportServer) topSlices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topN := int(request.GetFloat("top_n", 10))
	key, err := analyzer.ParseSortKey(request.GetString("sort_by", string(analyzer.ByTotal)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, ok := rs.rows(filePath)
	if !ok {
		return mcp.NewToolResultError(notLoaded), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "TOP SLICES BY %s\n\n", strings.ToUpper(string(key)))
	top := analyzer.TopSlices(rows, key, topN)
	if len(top) == 0 {
		sb.WriteString("No events.\n")
	}
	for i, r := range top {
		sb.WriteString(analyzer.FormatRow(r, i+1))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (rs *reportServer) callerBreakdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	caller, err := request.RequireString("caller")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, ok := rs.rows(filePath)
	if !ok {
		return mcp.NewToolResultError(notLoaded), nil
	}

	shares := analyzer.CallerBreakdown(rows, caller)
	var sb strings.Builder
	fmt.Fprintf(&sb, "SLICES AFTER %s\n\n", analyzer.DisplayName(caller))
	if len(shares) == 0 {
		sb.WriteString("No events with this caller.\n")
	}
	for i, s := range shares {
		fmt.Fprintf(&sb, "%d. [tid %d] -> %s at %s:%d\n", i+1, s.Row.TID,
			analyzer.DisplayName(s.Row.Called.Name), s.Row.CallSite.File, s.Row.CallSite.Line)
		fmt.Fprintf(&sb, "   %d instrs over %d calls (%.2f%%)\n", s.Row.TotalInstrs, s.Row.CallCount, s.Percentage)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (rs *reportServer) getStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, ok := rs.rows(filePath)
	if !ok {
		return mcp.NewToolResultError(notLoaded), nil
	}

	st := analyzer.ComputeStatistics(rows)
	var sb strings.Builder
	sb.WriteString("REPORT STATISTICS\n\n")
	fmt.Fprintf(&sb, "Threads: %d\n", st.Threads)
	fmt.Fprintf(&sb, "Events: %d (%d never closed)\n", st.Events, st.UnclosedEvents)
	fmt.Fprintf(&sb, "Calls: %d\n", st.TotalCalls)
	fmt.Fprintf(&sb, "Instructions: %d\n", st.TotalInstrs)
	fmt.Fprintf(&sb, "Unique functions: %d\n", st.UniqueFunctions)
	fmt.Fprintf(&sb, "Unique call sites: %d\n", st.UniqueCallSites)
	if st.HasWidest {
		fmt.Fprintf(&sb, "\nWidest slice:\n%s", analyzer.FormatRow(st.Widest, 1))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (rs *reportServer) callgraphDOT(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, ok := rs.rows(filePath)
	if !ok {
		return mcp.NewToolResultError(notLoaded), nil
	}

	if request.GetBool("plain", false) {
		return mcp.NewToolResultText(lrender.DOT(callgraph.Build(rows), "slices")), nil
	}
	maxEdges := int(request.GetFloat("max_edges", 0))
	return mcp.NewToolResultText(render.SliceGraphDOT(rows, "slices", render.NASA, maxEdges)), nil
}
