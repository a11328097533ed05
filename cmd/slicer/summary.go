package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"slicer/internal/analyzer"
	"slicer/internal/events"
)

var (
	headColor  = color.New(color.Bold, color.FgHiWhite)
	rankColor  = color.New(color.FgCyan)
	nameColor  = color.New(color.FgHiYellow)
	noneColor  = color.RGB(0x88, 0x88, 0x88)
	countColor = color.RGB(0xFF, 0x00, 0x7F)
)

func cmdSummary(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	in := fs.String("in", "", "slice report (output.log)")
	top := fs.Int("top", 20, "rows to show (0 = all)")
	by := fs.String("by", string(analyzer.ByTotal), "sort key: total, avg, max or calls")
	noColor := fs.Bool("no-color", false, "disable colors")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("--in is required")
	}
	key, err := analyzer.ParseSortKey(*by)
	if err != nil {
		return err
	}
	if *noColor {
		color.NoColor = true
	}

	rows, err := analyzer.ReadReportFile(*in)
	if err != nil {
		return err
	}
	writeSummary(w, rows, key, *top)
	return nil
}

func writeSummary(w io.Writer, rows []events.Row, key analyzer.SortKey, top int) {
	st := analyzer.ComputeStatistics(rows)
	headColor.Fprintf(w, "SLICE REPORT\n")
	fmt.Fprintf(w, "threads %d  events %d  calls %d  instructions %d  functions %d\n",
		st.Threads, st.Events, st.TotalCalls, st.TotalInstrs, st.UniqueFunctions)
	if st.UnclosedEvents > 0 {
		fmt.Fprintf(w, "unclosed events %d\n", st.UnclosedEvents)
	}
	if st.HasWidest {
		fmt.Fprintf(w, "widest slice %d instrs: %s -> %s\n", st.Widest.MaxInstrs,
			analyzer.DisplayName(st.Widest.Calling.Name), analyzer.DisplayName(st.Widest.Called.Name))
	}
	fmt.Fprintln(w)

	headColor.Fprintf(w, "%-5s %-4s %-28s %-28s %-20s %10s %10s %10s %12s\n",
		"rank", "tid", "caller", "callee", "call site", "calls", "avg", "max", "total")
	for i, r := range analyzer.TopSlices(rows, key, top) {
		rankColor.Fprintf(w, "%-5d ", i+1)
		fmt.Fprintf(w, "%-4d ", r.TID)
		writeName(w, r.Calling.Name, 28)
		writeName(w, r.Called.Name, 28)
		fmt.Fprintf(w, "%-20s ", clip(siteString(r.CallSite), 20))
		countColor.Fprintf(w, "%10d ", r.CallCount)
		fmt.Fprintf(w, "%10d %10d %12d\n", r.AvgInstrs, r.MaxInstrs, r.TotalInstrs)
	}

	costs := analyzer.HotCallees(rows, 10)
	if len(costs) == 0 {
		return
	}
	fmt.Fprintln(w)
	headColor.Fprintf(w, "HOT CALLEES\n")
	for i, c := range costs {
		rankColor.Fprintf(w, "%-3d ", i+1)
		writeName(w, c.Function, 28)
		fmt.Fprintf(w, "%6.2f%%  %d instrs over %d calls  ", c.Percentage, c.TotalInstrs, c.Calls)
		fmt.Fprintln(w, strings.Repeat("#", min(int(c.Percentage/2), 50)))
	}
}

func writeName(w io.Writer, name string, width int) {
	if name == "" {
		noneColor.Fprintf(w, "%-*s ", width, analyzer.DisplayName(name))
		return
	}
	nameColor.Fprintf(w, "%-*s ", width, clip(name, width))
}

func siteString(l events.Location) string {
	if l.File == "" && l.Line == 0 {
		return "-"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
