// Package events tracks call events: the instructions executed between a
// call site and the entry of the function it calls, aggregated per
// (caller, callee, call site) triple and per thread.
//
// The package is driven synchronously from instrumentation callbacks. Each
// thread's state is touched only by that thread, so nothing here locks.
package events

import "fmt"

// Location is a source position. Paths are compared verbatim, not normalized.
// Missing debug info is represented by the zero Location.
type Location struct {
	File string
	Line uint32
}

// Function identifies a function by name and its own source location.
type Function struct {
	Name string
	Loc  Location
}

// LocationsEqual reports whether a and b name the same file and line.
func LocationsEqual(a, b Location) bool {
	return a.Line == b.Line && a.File == b.File
}

// FunctionsEqual reports whether a and b have the same name and location.
func FunctionsEqual(a, b Function) bool {
	return LocationsEqual(a.Loc, b.Loc) && a.Name == b.Name
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

func (f Function) String() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.Loc)
}

// Key is the identity of a call event.
// CallSite may lie outside both Calling and Called.
type Key struct {
	Calling  Function
	Called   Function
	CallSite Location
}

// Match compares call site first: it is the most selective field.
func (k *Key) Match(o *Key) bool {
	return LocationsEqual(k.CallSite, o.CallSite) &&
		FunctionsEqual(k.Calling, o.Calling) &&
		FunctionsEqual(k.Called, o.Called)
}
