package events

import (
	"strings"
	"testing"
)

func TestRenderReport(t *testing.T) {
	e := New(Options{MaxThreads: 2})
	e.Enter(1, "f", "x.c", 3)
	e.Enter(0, "main", "m.c", 1)
	e.OnInstructionRetired(0, "m.c", 2)
	e.OnInstructionRetired(0, "m.c", 3)
	e.Enter(0, "g", "g.c", 7)

	want := Header + "\n" +
		"0,,,0,main,m.c,1,,0,0,0,0,0,1\n" +
		"0,main,m.c,1,g,g.c,7,m.c,3,2,2,2,2,1\n" +
		"1,,,0,f,x.c,3,,0,0,0,0,0,1\n"
	if got := e.ExportReport().String(); got != want {
		t.Errorf("report:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderReportEmpty(t *testing.T) {
	e := New(Options{MaxThreads: 4})
	if got := e.ExportReport().String(); got != Header+"\n" {
		t.Errorf("empty report = %q", got)
	}
}

func TestRenderEventUnappliedMin(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	u := e.OnFunctionEntry(0, "f", "f.c", 1)
	ev := e.Thread(0).Table.Event(u.EventID())
	row := RenderEvent(0, &ev)
	fields := row.Fields()
	if len(fields) != NumFields {
		t.Fatalf("got %d fields, want %d", len(fields), NumFields)
	}
	if fields[10] != "18446744073709551615" {
		t.Errorf("min_instrs = %q", fields[10])
	}
	if len(strings.Split(Header, ",")) != NumFields {
		t.Error("Header field count does not match NumFields")
	}
}

func TestReportWriteTo(t *testing.T) {
	rep := Report{Rows: []Row{{TID: 2, Called: Function{Name: "f"}, CallCount: 1}}}
	var b strings.Builder
	n, err := rep.WriteTo(&b)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != b.Len() {
		t.Errorf("WriteTo returned %d, wrote %d", n, b.Len())
	}
	if !strings.HasSuffix(b.String(), "2,,,0,f,,0,,0,0,0,0,0,1\n") {
		t.Errorf("row = %q", b.String())
	}
}
