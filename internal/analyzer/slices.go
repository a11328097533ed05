package analyzer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"slicer/internal/events"
)

// SortKey selects the statistic TopSlices ranks by.
type SortKey string

const (
	ByTotal SortKey = "total"
	ByAvg   SortKey = "avg"
	ByMax   SortKey = "max"
	ByCalls SortKey = "calls"
)

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case ByTotal, ByAvg, ByMax, ByCalls:
		return k, nil
	}
	return "", fmt.Errorf("analyzer: unknown sort key %q (want total, avg, max or calls)", s)
}

func (k SortKey) value(r *events.Row) uint64 {
	switch k {
	case ByAvg:
		return r.AvgInstrs
	case ByMax:
		return r.MaxInstrs
	case ByCalls:
		return r.CallCount
	default:
		return r.TotalInstrs
	}
}

// TopSlices returns the n rows with the largest value of key, descending.
// Ties keep report order. n <= 0 returns every row.
func TopSlices(rows []events.Row, key SortKey, n int) []events.Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b events.Row) int {
		return cmp.Compare(key.value(&b), key.value(&a))
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Share is a row with its fraction of some total, in percent.
type Share struct {
	Row        events.Row
	Percentage float64
}

// CallerBreakdown returns the events whose caller is named caller, with each
// event's share of the caller's instructions, largest first.
func CallerBreakdown(rows []events.Row, caller string) []Share {
	var (
		shares []Share
		total  uint64
	)
	for _, r := range rows {
		if r.Calling.Name != caller {
			continue
		}
		shares = append(shares, Share{Row: r})
		total += r.TotalInstrs
	}
	for i := range shares {
		if total > 0 {
			shares[i].Percentage = float64(shares[i].Row.TotalInstrs) / float64(total) * 100.0
		}
	}
	slices.SortStableFunc(shares, func(a, b Share) int {
		return cmp.Compare(b.Row.TotalInstrs, a.Row.TotalInstrs)
	})
	return shares
}

// FunctionCost aggregates the slices that end in one function, over every
// caller, call site and thread.
type FunctionCost struct {
	Function    string
	Calls       uint64
	TotalInstrs uint64
	Percentage  float64 // of all instructions in the report
}

// HotCallees ranks called functions by the instructions of the slices
// leading into them.
func HotCallees(rows []events.Row, n int) []FunctionCost {
	byName := make(map[string]*FunctionCost)
	var order []string
	var total uint64
	for _, r := range rows {
		fc, ok := byName[r.Called.Name]
		if !ok {
			fc = &FunctionCost{Function: r.Called.Name}
			byName[r.Called.Name] = fc
			order = append(order, r.Called.Name)
		}
		fc.Calls += r.CallCount
		fc.TotalInstrs += r.TotalInstrs
		total += r.TotalInstrs
	}

	costs := make([]FunctionCost, 0, len(order))
	for _, name := range order {
		fc := byName[name]
		if total > 0 {
			fc.Percentage = float64(fc.TotalInstrs) / float64(total) * 100.0
		}
		costs = append(costs, *fc)
	}
	slices.SortStableFunc(costs, func(a, b FunctionCost) int {
		return cmp.Compare(b.TotalInstrs, a.TotalInstrs)
	})
	if n > 0 && n < len(costs) {
		costs = costs[:n]
	}
	return costs
}

// DisplayName renders the empty function name used at thread start and flush.
func DisplayName(name string) string {
	if name == "" {
		return "<none>"
	}
	return name
}

// FormatRow returns a human-readable description of a report row.
func FormatRow(r events.Row, rank int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d: [tid %d] %s -> %s\n", rank, r.TID, DisplayName(r.Calling.Name), DisplayName(r.Called.Name))
	fmt.Fprintf(&sb, "    Call site: %s:%d\n", r.CallSite.File, r.CallSite.Line)
	fmt.Fprintf(&sb, "    Calls: %d  Total: %d instrs\n", r.CallCount, r.TotalInstrs)
	if r.CallCount > 0 {
		fmt.Fprintf(&sb, "    Min/Avg/Max: %d / %d / %d instrs\n", r.MinInstrs, r.AvgInstrs, r.MaxInstrs)
	}
	return sb.String()
}
