// Package analyzer reads slice reports back and ranks their call events.
package analyzer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"slicer/internal/events"
)

// ErrHeader is returned when a report does not start with events.Header.
var ErrHeader = errors.New("unexpected report header")

// ReadReportFile parses the report at path.
func ReadReportFile(path string) ([]events.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("analyzer: open report: %w", err)
	}
	defer f.Close()
	return ParseReport(f)
}

// ParseReport parses a report written by events.Report.WriteTo.
func ParseReport(r io.Reader) ([]events.Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("analyzer: read header: %w", err)
		}
		return nil, fmt.Errorf("analyzer: empty report: %w", ErrHeader)
	}
	if got := strings.TrimRight(sc.Text(), "\r"); got != events.Header {
		return nil, fmt.Errorf("analyzer: %w: %q", ErrHeader, got)
	}

	var rows []events.Row
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		row, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("analyzer: line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("analyzer: read report: %w", err)
	}
	return rows, nil
}

func parseRow(line string) (events.Row, error) {
	f := strings.Split(line, ",")
	if len(f) != events.NumFields {
		return events.Row{}, fmt.Errorf("got %d fields, want %d", len(f), events.NumFields)
	}

	var (
		row events.Row
		err error
	)
	if row.TID, err = strconv.Atoi(f[0]); err != nil {
		return row, fmt.Errorf("tid: %w", err)
	}
	row.Calling.Name, row.Calling.Loc.File = f[1], f[2]
	row.Called.Name, row.Called.Loc.File = f[4], f[5]
	row.CallSite.File = f[7]

	lines := []struct {
		name string
		s    string
		dst  *uint32
	}{
		{"calling_line", f[3], &row.Calling.Loc.Line},
		{"called_line", f[6], &row.Called.Loc.Line},
		{"call_line", f[8], &row.CallSite.Line},
	}
	for _, l := range lines {
		v, err := strconv.ParseUint(l.s, 10, 32)
		if err != nil {
			return row, fmt.Errorf("%s: %w", l.name, err)
		}
		*l.dst = uint32(v)
	}

	counts := []struct {
		name string
		s    string
		dst  *uint64
	}{
		{"max_instrs", f[9], &row.MaxInstrs},
		{"min_instrs", f[10], &row.MinInstrs},
		{"avg_instrs", f[11], &row.AvgInstrs},
		{"total_instrs", f[12], &row.TotalInstrs},
		{"call_count", f[13], &row.CallCount},
	}
	for _, c := range counts {
		v, err := strconv.ParseUint(c.s, 10, 64)
		if err != nil {
			return row, fmt.Errorf("%s: %w", c.name, err)
		}
		*c.dst = v
	}
	return row, nil
}
