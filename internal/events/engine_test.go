package events

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
)

// retire reports one retired instruction per line of file.
func retire(e *Engine, tid int, file string, lines ...uint32) {
	for _, l := range lines {
		e.OnInstructionRetired(tid, file, l)
	}
}

func TestEngineExampleScenario(t *testing.T) {
	e := New(Options{MaxThreads: 1})

	e.Enter(0, "main", "a.c", 1)
	retire(e, 0, "a.c", 2, 3, 4, 5, 10)
	mainFoo := e.Enter(0, "foo", "a.c", 20)
	retire(e, 0, "a.c", 21, 22, 12)
	fooBar := e.Enter(0, "bar", "a.c", 30)
	e.Enter(0, "main", "a.c", 1)
	retire(e, 0, "a.c", 2, 3, 4, 5, 10)
	if again := e.Enter(0, "foo", "a.c", 20); again != mainFoo {
		t.Fatalf("second main->foo resolved to event %d, want %d", again, mainFoo)
	}

	tb := e.Thread(0).Table
	ev := tb.Event(mainFoo)
	if ev.Calling.Name != "main" || ev.Called.Name != "foo" || !LocationsEqual(ev.CallSite, Location{"a.c", 10}) {
		t.Fatalf("main->foo key = %+v", ev.Key)
	}
	if ev.CallCount != 2 || ev.TotalInstrs != 10 || ev.MinInstrs != 5 || ev.MaxInstrs != 5 || ev.AvgInstrs != 5 {
		t.Errorf("main->foo stats = %+v", ev)
	}

	ev = tb.Event(fooBar)
	if ev.Calling.Name != "foo" || ev.Called.Name != "bar" || !LocationsEqual(ev.CallSite, Location{"a.c", 12}) {
		t.Fatalf("foo->bar key = %+v", ev.Key)
	}
	if ev.CallCount != 1 || ev.TotalInstrs != 3 || ev.MinInstrs != 3 || ev.MaxInstrs != 3 || ev.AvgInstrs != 3 {
		t.Errorf("foo->bar stats = %+v", ev)
	}
}

func TestEngineRepeatedEntryHitsCache(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	e.Enter(0, "leaf", "l.c", 50)

	first := -1
	for i := 0; i < 10; i++ {
		retire(e, 0, "l.c", 51, 52, 55)
		th := e.Thread(0)
		key := Key{Calling: th.Cursor.Calling, Called: Function{"leaf", Location{"l.c", 50}}, CallSite: th.Cursor.CallLoc}
		scanned, found := th.Table.scan(&key)

		id := e.Enter(0, "leaf", "l.c", 50)
		if first < 0 {
			first = id
		}
		if id != first {
			t.Fatalf("iteration %d: event %d, want %d", i, id, first)
		}
		if found && scanned != id {
			t.Fatalf("iteration %d: scan found %d, cache path gave %d", i, scanned, id)
		}
		if th.Cursor.LastID != id {
			t.Fatalf("LastID = %d, want %d", th.Cursor.LastID, id)
		}
	}
	ev := e.Thread(0).Table.Event(first)
	if ev.CallCount != 10 || ev.TotalInstrs != 30 {
		t.Errorf("leaf->leaf count %d total %d", ev.CallCount, ev.TotalInstrs)
	}
}

func TestEngineSelfTransitionKeepsCaller(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	e.Enter(0, "f", "f.c", 1)
	retire(e, 0, "f.c", 2)
	e.Enter(0, "f", "f.c", 9)

	c := e.Thread(0).Cursor
	if c.Calling.Name != "f" || c.Calling.Loc.Line != 1 {
		t.Errorf("Calling = %v, want f at f.c:1", c.Calling)
	}
	if c.Called.Loc.Line != 9 {
		t.Errorf("Called = %v", c.Called)
	}
}

func TestEngineDeferredUpdate(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	retire(e, 0, "m.c", 1, 2)
	u := e.OnFunctionEntry(0, "f", "f.c", 1)

	ev := e.Thread(0).Table.Event(u.EventID())
	if ev.CallCount != 0 || ev.MinInstrs != math.MaxUint64 {
		t.Fatalf("event updated before Apply: %+v", ev)
	}
	if got := e.Thread(0).Cursor.Calling.Name; got != "" {
		t.Fatalf("caller advanced before Apply: %q", got)
	}

	retire(e, 0, "m.c", 3)
	u.Apply()
	ev = e.Thread(0).Table.Event(u.EventID())
	if ev.CallCount != 1 || ev.TotalInstrs != 3 {
		t.Errorf("after Apply: %+v", ev)
	}
	if c := e.Thread(0).Cursor; c.Instrs != 0 || c.Calling.Name != "f" {
		t.Errorf("cursor after Apply: %+v", c)
	}
}

func TestEngineMissingMetadata(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	a := e.Enter(0, "f", "", 0)
	retire(e, 0, "", 0)
	b := e.Enter(0, "f", "f.c", 0)
	if a == b {
		t.Fatal("function without source info collided with one that has it")
	}
	if n := e.Thread(0).Table.Len(); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}
}

func TestEngineUniqueness(t *testing.T) {
	e := New(Options{MaxThreads: 2})
	rng := rand.New(rand.NewPCG(1, 2))
	names := []string{"main", "a", "b", "c"}
	files := []string{"x.c", "y.c"}
	for i := 0; i < 2000; i++ {
		tid := rng.IntN(2)
		for n := rng.IntN(4); n > 0; n-- {
			e.OnInstructionRetired(tid, files[rng.IntN(2)], uint32(rng.IntN(3)))
		}
		e.Enter(tid, names[rng.IntN(len(names))], files[rng.IntN(2)], uint32(rng.IntN(2)))
	}
	for tid := 0; tid < 2; tid++ {
		evs := e.Thread(tid).Table.Events()
		for i := range evs {
			if evs[i].ID != i {
				t.Fatalf("thread %d: event %d has ID %d", tid, i, evs[i].ID)
			}
			for j := i + 1; j < len(evs); j++ {
				if evs[i].Key.Match(&evs[j].Key) {
					t.Fatalf("thread %d: events %d and %d share key %+v", tid, i, j, evs[i].Key)
				}
			}
		}
	}
}

func TestEngineThreadsAreIndependent(t *testing.T) {
	e := New(Options{MaxThreads: 2})
	e.Enter(0, "main", "m.c", 1)
	retire(e, 0, "m.c", 2, 3)
	retire(e, 1, "w.c", 1)
	if got := e.Thread(1).Cursor.Instrs; got != 1 {
		t.Errorf("thread 1 Instrs = %d", got)
	}
	if got := e.Thread(0).Cursor.Instrs; got != 2 {
		t.Errorf("thread 0 Instrs = %d", got)
	}
	if n := e.Thread(1).Table.Len(); n != 0 {
		t.Errorf("thread 1 has %d events", n)
	}
}

func totalCalls(e *Engine) uint64 {
	var n uint64
	for tid := 0; tid < e.MaxThreads(); tid++ {
		for _, ev := range e.Thread(tid).Table.Events() {
			n += ev.CallCount
		}
	}
	return n
}

func TestEngineFlush(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		e := New(Options{MaxThreads: 2})
		e.Enter(0, "main", "m.c", 1)
		retire(e, 0, "m.c", 2, 3, 4, 5)
		before := totalCalls(e)

		e.Flush()
		if got := totalCalls(e); got != before+1 {
			t.Fatalf("Flush added %d updates, want 1", got-before)
		}
		tb := e.Thread(0).Table
		last := tb.Event(tb.Len() - 1)
		if last.Calling.Name != "main" || last.Called != (Function{}) || last.TotalInstrs != 4 {
			t.Errorf("flushed event = %+v", last)
		}
		if e.Thread(0).Cursor.Instrs != 0 {
			t.Error("Instrs not reset by Flush")
		}
	})
	t.Run("idle", func(t *testing.T) {
		e := New(Options{MaxThreads: 2})
		e.Enter(0, "main", "m.c", 1)
		before := totalCalls(e)
		e.Flush()
		if got := totalCalls(e); got != before {
			t.Errorf("Flush on idle threads added %d updates", got-before)
		}
	})
}

func TestEngineCapacityIsFatal(t *testing.T) {
	e := New(Options{MaxThreads: 1, Capacity: 2})
	e.Enter(0, "a", "a.c", 1)
	e.Enter(0, "b", "b.c", 1)
	err := catchFatal(func() { e.Enter(0, "c", "c.c", 1) })
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("third distinct event: got %v, want ErrCapacity", err)
	}
}

func TestEngineThreadOutOfRange(t *testing.T) {
	e := New(Options{MaxThreads: 2})
	for _, tid := range []int{-1, 2} {
		err := catchFatal(func() { e.OnInstructionRetired(tid, "x.c", 1) })
		if !errors.Is(err, ErrThreadRange) {
			t.Errorf("tid %d: got %v, want ErrThreadRange", tid, err)
		}
	}
}

func TestEngineShutdown(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	e.Enter(0, "main", "m.c", 1)
	retire(e, 0, "m.c", 2)
	e.Shutdown()
	if e.MaxThreads() != 0 {
		t.Errorf("MaxThreads after Shutdown = %d", e.MaxThreads())
	}
	if rep := e.ExportReport(); len(rep.Rows) != 0 {
		t.Errorf("report after Shutdown has %d rows", len(rep.Rows))
	}
}

func TestUpdateAfterShutdown(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	e.Enter(0, "main", "m.c", 1)
	retire(e, 0, "m.c", 2)
	u := e.OnFunctionEntry(0, "f", "f.c", 1)
	e.Shutdown()

	err := catchFatal(u.Apply)
	if !errors.Is(err, ErrReleased) {
		t.Fatalf("Apply after Shutdown: got %v, want ErrReleased", err)
	}
	var fe *FatalError
	if !errors.As(err, &fe) || fe.Thread != 0 {
		t.Errorf("fatal error = %#v", err)
	}
}

func TestEngineDebugThread(t *testing.T) {
	e := New(Options{MaxThreads: 1})
	e.Enter(0, "main", "m.c", 1)
	retire(e, 0, "m.c", 7)
	s := e.DebugThread(0)
	for _, want := range []string{"Thread 0:", "Calling Func:      main", "Called Loc:        m.c:7", "Events:            1/10000"} {
		if !strings.Contains(s, want) {
			t.Errorf("DebugThread missing %q:\n%s", want, s)
		}
	}
}
