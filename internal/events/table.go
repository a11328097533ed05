package events

import (
	"errors"
	"fmt"
	"math"
)

// DefaultCapacity is the per-thread event ceiling used when Options.Capacity is 0.
const DefaultCapacity = 10_000

var (
	// ErrCapacity is raised when a thread needs more distinct events than its table holds.
	ErrCapacity = errors.New("maximum number of call events exceeded")
	// ErrThreadRange is raised for a thread id outside the engine's arena.
	ErrThreadRange = errors.New("thread id out of range")
	// ErrReleased is raised when an update reaches a table freed by Engine.Shutdown.
	ErrReleased = errors.New("event table released")
)

// FatalError is the panic value for unrecoverable engine conditions.
// Statistics are no longer trustworthy once one is raised, so callers are
// expected to let it abort the process.
type FatalError struct {
	Thread int
	Err    error
	Detail string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("events: thread %d: %v (%s)", e.Thread, e.Err, e.Detail)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Event aggregates every slice observed for one Key.
// ID is the event's index in its thread's table; IDs repeat across threads.
type Event struct {
	ID int
	Key

	MaxInstrs   uint64
	MinInstrs   uint64 // math.MaxUint64 until the first observation
	AvgInstrs   uint64 // TotalInstrs / CallCount, integer division
	TotalInstrs uint64
	CallCount   uint64
}

// Table is the append-only, bounded event list of one thread.
type Table struct {
	thread   int
	capacity int
	events   []Event
	released bool
}

// NewTable returns an empty table that accepts at most capacity events.
func NewTable(thread, capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{thread: thread, capacity: capacity}
}

// Len returns the number of events.
func (t *Table) Len() int { return len(t.events) }

// Cap returns the table's event ceiling.
func (t *Table) Cap() int { return t.capacity }

// Event returns a copy of event id.
func (t *Table) Event(id int) Event { return t.events[id] }

// Events returns the events in id order. The slice aliases the table.
func (t *Table) Events() []Event { return t.events }

// Find returns the id of the event matching the cursor's current triple.
// The cursor's last matched event is tried before a full scan.
func (t *Table) Find(c *Cursor) (int, bool) {
	if len(t.events) == 0 {
		return 0, false
	}
	key := c.key()
	if c.LastID >= 0 && c.LastID < len(t.events) && t.events[c.LastID].Key.Match(&key) {
		return c.LastID, true
	}
	return t.scan(&key)
}

func (t *Table) scan(key *Key) (int, bool) {
	for i := range t.events {
		if t.events[i].Key.Match(key) {
			return i, true
		}
	}
	return 0, false
}

// Create appends an event for the cursor's current triple and returns its id.
// A full table panics with a *FatalError wrapping ErrCapacity.
func (t *Table) Create(c *Cursor) int {
	if len(t.events) >= t.capacity {
		panic(&FatalError{
			Thread: t.thread,
			Err:    ErrCapacity,
			Detail: fmt.Sprintf("capacity %d", t.capacity),
		})
	}
	id := len(t.events)
	t.events = append(t.events, Event{
		ID:        id,
		Key:       c.key(),
		MinInstrs: math.MaxUint64,
	})
	return id
}

// Update folds one observed slice of n instructions into event id.
// Updating a released table panics with a *FatalError wrapping ErrReleased.
func (t *Table) Update(id int, n uint64) {
	if t.released {
		panic(&FatalError{
			Thread: t.thread,
			Err:    ErrReleased,
			Detail: fmt.Sprintf("update of event %d after shutdown", id),
		})
	}
	ev := &t.events[id]
	if n > ev.MaxInstrs {
		ev.MaxInstrs = n
	}
	if n < ev.MinInstrs {
		ev.MinInstrs = n
	}
	ev.TotalInstrs += n
	ev.CallCount++
	ev.AvgInstrs = ev.TotalInstrs / ev.CallCount
}

// release drops the event storage.
func (t *Table) release() {
	t.events = nil
	t.released = true
}
