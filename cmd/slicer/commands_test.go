package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"slicer/internal/events"
	"slicer/internal/trace"
)

const sampleReport = events.Header + "\n" +
	"0,,,0,main,a.c,1,,0,0,0,0,0,1\n" +
	"0,main,a.c,1,foo,a.c,20,a.c,10,5,5,5,10,2\n" +
	"0,foo,a.c,20,bar,b.c,30,a.c,12,3,3,3,3,1\n" +
	"1,worker,w.c,1,foo,a.c,20,w.c,9,40,2,21,42,2\n"

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output.log")
	if err := os.WriteFile(path, []byte(sampleReport), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSummary(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	if err := cmdSummary([]string{"--in", writeReport(t), "--top", "2", "--by", "max"}, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"threads 2  events 4  calls 6  instructions 55  functions 4",
		"widest slice 40 instrs: worker -> foo",
		"HOT CALLEES",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(out, "\n")
	var ranked []string
	for _, l := range lines {
		if strings.HasPrefix(l, "1 ") || strings.HasPrefix(l, "2 ") || strings.HasPrefix(l, "3 ") {
			ranked = append(ranked, l)
		}
	}
	// Two slice rows then the hot callee ranks.
	if len(ranked) < 2 || !strings.Contains(ranked[0], "worker") || !strings.Contains(ranked[1], "main") {
		t.Errorf("ranked rows = %q", ranked)
	}

	if err := cmdSummary([]string{"--in", writeReport(t), "--by", "min"}, &buf); err == nil {
		t.Error("bad sort key accepted")
	}
	if err := cmdSummary(nil, &buf); err == nil {
		t.Error("missing --in accepted")
	}
}

func TestGraph(t *testing.T) {
	dir := t.TempDir()
	in := writeReport(t)

	weighted := filepath.Join(dir, "slices.dot")
	if err := cmdGraph([]string{"--in", in, "--out", weighted, "--max-edges", "2"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(weighted)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "n_worker -> n_foo") || strings.Contains(string(data), "n_foo -> n_bar") {
		t.Errorf("weighted graph:\n%s", data)
	}

	plain := filepath.Join(dir, "plain.dot")
	if err := cmdGraph([]string{"--in", in, "--out", plain, "--plain"}); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty plain graph")
	}
}

func TestListing(t *testing.T) {
	recs, err := trace.DecodeJSONL[trace.Record](strings.NewReader(sampleTrace))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	writeListing(&buf, recs, 0)
	out := buf.String()
	for _, want := range []string{
		"; thread 0\n",
		"\nmain:\n0x00001000  fd 7b bf a9  ",
		"; bl -> 0x1008; main.c:3\n",
		"; ret; foo.c:11\n",
		"; main.c:2",
		"\nfoo:\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "worker") {
		t.Errorf("thread filter ignored:\n%s", out)
	}

	buf.Reset()
	writeListing(&buf, recs, -1)
	if got := strings.Count(buf.String(), "; thread "); got != 5 {
		t.Errorf("thread switches = %d:\n%s", got, buf.String())
	}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), res.IsError
}

func TestReportServer(t *testing.T) {
	rs := newReportServer(zerolog.Nop())
	path := writeReport(t)
	args := map[string]any{"file_path": path}

	if _, isErr := callTool(t, rs.getStatistics, args); !isErr {
		t.Error("statistics before load_report succeeded")
	}

	out, isErr := callTool(t, rs.loadReport, args)
	if isErr || !strings.Contains(out, "Events: 4") {
		t.Fatalf("load_report = %q", out)
	}

	out, _ = callTool(t, rs.topSlices, map[string]any{"file_path": path, "top_n": 1.0, "sort_by": "calls"})
	if !strings.Contains(out, "#1: [tid 0] main -> foo") || strings.Contains(out, "#2") {
		t.Errorf("top_slices = %q", out)
	}
	if _, isErr := callTool(t, rs.topSlices, map[string]any{"file_path": path, "sort_by": "min"}); !isErr {
		t.Error("bad sort_by accepted")
	}

	out, _ = callTool(t, rs.callerBreakdown, map[string]any{"file_path": path, "caller": "foo"})
	if !strings.Contains(out, "-> bar at a.c:12") || !strings.Contains(out, "(100.00%)") {
		t.Errorf("caller_breakdown = %q", out)
	}

	out, _ = callTool(t, rs.getStatistics, args)
	if !strings.Contains(out, "Instructions: 55") || !strings.Contains(out, "Unique call sites: 4") {
		t.Errorf("get_statistics = %q", out)
	}

	weighted, _ := callTool(t, rs.callgraphDOT, args)
	if !strings.Contains(weighted, "n_worker -> n_foo") {
		t.Errorf("callgraph_dot = %q", weighted)
	}
	out, _ = callTool(t, rs.callgraphDOT, map[string]any{"file_path": path, "plain": true})
	if out == "" || out == weighted {
		t.Errorf("plain callgraph_dot = %q", out)
	}

	if rs.mcpServer() == nil {
		t.Error("nil server")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, false, true)
	log.Debug().Msg("hidden")
	log.Info().Str("report", "output.log").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"report":"output.log"`) {
		t.Errorf("log output = %q", out)
	}

	buf.Reset()
	vl := newLogger(&buf, true, true)
	vl.Debug().Msg("debug on")
	if !strings.Contains(buf.String(), "debug on") {
		t.Errorf("verbose log output = %q", buf.String())
	}
}
