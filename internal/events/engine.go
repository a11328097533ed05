package events

import "fmt"

// DefaultMaxThreads matches the thread ceiling of the instrumentation host.
const DefaultMaxThreads = 500

// Options sizes an Engine.
type Options struct {
	MaxThreads int // number of thread slots; 0 = DefaultMaxThreads
	Capacity   int // events per thread; 0 = DefaultCapacity
}

func (o Options) effectiveThreads() int {
	if o.MaxThreads > 0 {
		return o.MaxThreads
	}
	return DefaultMaxThreads
}

func (o Options) effectiveCapacity() int {
	if o.Capacity > 0 {
		return o.Capacity
	}
	return DefaultCapacity
}

// Engine owns the per-thread arena. The arena never changes shape after New,
// so concurrent callers are safe as long as each uses only its own thread id.
type Engine struct {
	threads []Thread
}

// New allocates zeroed state for every thread slot.
func New(opts Options) *Engine {
	n := opts.effectiveThreads()
	capacity := opts.effectiveCapacity()
	e := &Engine{threads: make([]Thread, n)}
	for tid := range e.threads {
		e.threads[tid] = Thread{ID: tid, Table: NewTable(tid, capacity)}
	}
	return e
}

// MaxThreads returns the number of thread slots.
func (e *Engine) MaxThreads() int { return len(e.threads) }

func (e *Engine) thread(tid int) *Thread {
	if tid < 0 || tid >= len(e.threads) {
		panic(&FatalError{
			Thread: tid,
			Err:    ErrThreadRange,
			Detail: fmt.Sprintf("%d slots", len(e.threads)),
		})
	}
	return &e.threads[tid]
}

// Thread returns the state of thread tid.
func (e *Engine) Thread(tid int) *Thread { return e.thread(tid) }

// OnFunctionEntry handles the first instruction of function fn at file:line
// on thread tid. The matching event is found or created immediately; the
// returned Update must be applied to record the slice, before Shutdown.
func (e *Engine) OnFunctionEntry(tid int, fn, file string, line uint32) Update {
	return e.thread(tid).enter(Function{Name: fn, Loc: Location{File: file, Line: line}})
}

// Enter runs the whole function-entry protocol and returns the event id.
func (e *Engine) Enter(tid int, fn, file string, line uint32) int {
	u := e.OnFunctionEntry(tid, fn, file, line)
	u.Apply()
	return u.EventID()
}

// OnInstructionRetired counts one instruction at file:line on thread tid.
func (e *Engine) OnInstructionRetired(tid int, file string, line uint32) {
	e.thread(tid).retire(Location{File: file, Line: line})
}

// Flush closes every thread's in-flight slice by entering an empty function.
// Threads with no pending instructions are left untouched.
func (e *Engine) Flush() {
	for tid := range e.threads {
		if e.threads[tid].Cursor.Instrs != 0 {
			e.Enter(tid, "", "", 0)
		}
	}
}

// ExportReport renders every thread's events.
func (e *Engine) ExportReport() Report {
	return RenderReport(e.threads)
}

// Shutdown flushes pending slices and releases all event storage.
// Export the report before calling it.
func (e *Engine) Shutdown() {
	e.Flush()
	for tid := range e.threads {
		e.threads[tid].Table.release()
	}
	e.threads = nil
}

// DebugThread describes thread tid's cursor.
func (e *Engine) DebugThread(tid int) string {
	return e.thread(tid).debugString()
}
