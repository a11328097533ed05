package analyzer

import "slicer/internal/events"

// Statistics summarizes a whole report.
type Statistics struct {
	Threads         int    `json:"threads"`
	Events          int    `json:"events"`
	UnclosedEvents  int    `json:"unclosed_events"` // created but never updated
	TotalCalls      uint64 `json:"total_calls"`
	TotalInstrs     uint64 `json:"total_instrs"`
	UniqueFunctions int    `json:"unique_functions"`
	UniqueCallSites int    `json:"unique_call_sites"`

	Widest    events.Row `json:"-"` // event with the largest single slice
	HasWidest bool       `json:"-"`
}

// ComputeStatistics calculates report-wide totals.
func ComputeStatistics(rows []events.Row) Statistics {
	var st Statistics
	st.Events = len(rows)

	threads := make(map[int]bool)
	funcs := make(map[string]bool)
	sites := make(map[events.Location]bool)
	for _, r := range rows {
		threads[r.TID] = true
		funcs[r.Calling.Name] = true
		funcs[r.Called.Name] = true
		sites[r.CallSite] = true

		st.TotalCalls += r.CallCount
		st.TotalInstrs += r.TotalInstrs
		if r.CallCount == 0 {
			st.UnclosedEvents++
			continue
		}
		if !st.HasWidest || r.MaxInstrs > st.Widest.MaxInstrs {
			st.Widest = r
			st.HasWidest = true
		}
	}
	// The empty name stands for "no function" at thread start and flush.
	delete(funcs, "")

	st.Threads = len(threads)
	st.UniqueFunctions = len(funcs)
	st.UniqueCallSites = len(sites)
	return st
}
