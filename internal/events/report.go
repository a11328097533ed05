package events

import (
	"io"
	"strconv"
	"strings"
)

// Header is the first line of a report.
const Header = "tid,calling_func,calling_file,calling_line,called_func,called_file,called_line,call_file,call_line,max_instrs,min_instrs,avg_instrs,total_instrs,call_count"

// NumFields is the number of comma-separated fields in every report line.
const NumFields = 14

// Row is one report line.
type Row struct {
	TID      int
	Calling  Function
	Called   Function
	CallSite Location

	MaxInstrs   uint64
	MinInstrs   uint64
	AvgInstrs   uint64
	TotalInstrs uint64
	CallCount   uint64
}

// RenderEvent converts an event of thread tid to a row.
func RenderEvent(tid int, ev *Event) Row {
	return Row{
		TID:         tid,
		Calling:     ev.Calling,
		Called:      ev.Called,
		CallSite:    ev.CallSite,
		MaxInstrs:   ev.MaxInstrs,
		MinInstrs:   ev.MinInstrs,
		AvgInstrs:   ev.AvgInstrs,
		TotalInstrs: ev.TotalInstrs,
		CallCount:   ev.CallCount,
	}
}

// Fields returns the row's values in header order. Strings are not quoted.
func (r Row) Fields() []string {
	return []string{
		strconv.Itoa(r.TID),
		r.Calling.Name,
		r.Calling.Loc.File,
		strconv.FormatUint(uint64(r.Calling.Loc.Line), 10),
		r.Called.Name,
		r.Called.Loc.File,
		strconv.FormatUint(uint64(r.Called.Loc.Line), 10),
		r.CallSite.File,
		strconv.FormatUint(uint64(r.CallSite.Line), 10),
		strconv.FormatUint(r.MaxInstrs, 10),
		strconv.FormatUint(r.MinInstrs, 10),
		strconv.FormatUint(r.AvgInstrs, 10),
		strconv.FormatUint(r.TotalInstrs, 10),
		strconv.FormatUint(r.CallCount, 10),
	}
}

func (r Row) String() string {
	return strings.Join(r.Fields(), ",")
}

// Report is the rendered state of all threads: rows ordered by thread id,
// then by event id.
type Report struct {
	Rows []Row
}

// RenderReport renders threads in the order given, which callers keep
// ascending by id.
func RenderReport(threads []Thread) Report {
	var rep Report
	for i := range threads {
		th := &threads[i]
		evs := th.Table.Events()
		for j := range evs {
			rep.Rows = append(rep.Rows, RenderEvent(th.ID, &evs[j]))
		}
	}
	return rep
}

func (rep Report) String() string {
	var b strings.Builder
	rep.WriteTo(&b)
	return b.String()
}

// WriteTo writes the header and every row, one per line.
func (rep Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := io.WriteString(w, Header+"\n")
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, r := range rep.Rows {
		n, err = io.WriteString(w, r.String()+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
