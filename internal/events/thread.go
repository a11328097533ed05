package events

import (
	"fmt"
	"strings"
)

// Cursor is a thread's position in the call-event state machine.
type Cursor struct {
	Calling Function // function whose slice is being counted
	Called  Function // most recently entered function
	CallLoc Location // location of the most recently retired instruction
	Instrs  uint64   // instructions retired since the last applied update
	LastID  int      // last event resolved by OnFunctionEntry
}

func (c *Cursor) key() Key {
	return Key{Calling: c.Calling, Called: c.Called, CallSite: c.CallLoc}
}

// Thread owns one thread's cursor and event table.
type Thread struct {
	ID     int
	Cursor Cursor
	Table  *Table
}

// Update is the deferred half of a function entry. OnFunctionEntry resolves
// the event at probe time; Apply folds the instruction count in when the
// probe runs.
type Update struct {
	th *Thread
	id int
}

// EventID returns the event the update will be folded into.
func (u Update) EventID() int { return u.id }

// Apply records the cursor's in-flight instruction count against the event,
// resets the count and makes the entered function the new caller.
//
// Entering a function with the caller's own name leaves the caller alone.
// Recursion is assumed not to happen; a recursive chain is attributed to the
// outermost frame.
func (u Update) Apply() {
	c := &u.th.Cursor
	u.th.Table.Update(u.id, c.Instrs)
	c.Instrs = 0
	if c.Calling.Name != c.Called.Name {
		c.Calling = c.Called
	}
}

// enter runs the lookup half of the function-entry protocol.
func (th *Thread) enter(fn Function) Update {
	c := &th.Cursor
	c.Called = fn
	id, ok := th.Table.Find(c)
	if !ok {
		id = th.Table.Create(c)
	}
	c.LastID = id
	return Update{th: th, id: id}
}

// retire counts one instruction at loc. The call site of the next event is
// therefore the last instruction retired before the entry, not necessarily
// the call instruction itself.
func (th *Thread) retire(loc Location) {
	th.Cursor.Instrs++
	th.Cursor.CallLoc = loc
}

func (th *Thread) debugString() string {
	c := &th.Cursor
	var b strings.Builder
	fmt.Fprintf(&b, "Thread %d:\n", th.ID)
	fmt.Fprintf(&b, "Calling Func:      %s\n", c.Calling.Name)
	fmt.Fprintf(&b, "Calling File:Line: %s\n", c.Calling.Loc)
	fmt.Fprintf(&b, "Called Func:       %s\n", c.Called.Name)
	fmt.Fprintf(&b, "Called File:Line:  %s\n", c.Called.Loc)
	fmt.Fprintf(&b, "Called Loc:        %s\n", c.CallLoc)
	fmt.Fprintf(&b, "Instrs:            %d\n", c.Instrs)
	fmt.Fprintf(&b, "Events:            %d/%d\n", th.Table.Len(), th.Table.Cap())
	return b.String()
}
