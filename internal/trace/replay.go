package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"slicer/internal/disasm"
	"slicer/internal/events"
)

// Stats summarizes a replay.
type Stats struct {
	Records  int         `json:"records"`
	Entries  int         `json:"entries"`  // function entries passed to the engine
	Filtered int         `json:"filtered"` // function entries dropped by the allow-list
	BL       int         `json:"bl"`       // direct call instructions seen in raw words
	BLR      int         `json:"blr"`      // indirect call instructions seen in raw words
	Threads  map[int]int `json:"threads"`  // records per thread id
}

// Replayer feeds trace records to an engine in order.
type Replayer struct {
	Engine *events.Engine
	Allow  AllowList
	Log    zerolog.Logger
}

// Replay reads records from r until EOF. A function entry is processed
// before the retirement of the same instruction, so the entry's call site is
// the instruction retired just before it.
func (rp *Replayer) Replay(ctx context.Context, r io.Reader) (Stats, error) {
	st := Stats{Threads: make(map[int]int)}
	dec := json.NewDecoder(r)
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return st, fmt.Errorf("trace: line %d: %w", st.Records+1, err)
		}
		st.Records++
		if err := rp.apply(&rec, &st); err != nil {
			return st, fmt.Errorf("trace: line %d: %w", st.Records, err)
		}
	}
	rp.Log.Debug().
		Int("records", st.Records).
		Int("entries", st.Entries).
		Int("filtered", st.Filtered).
		Msg("replay done")
	return st, nil
}

func (rp *Replayer) apply(rec *Record, st *Stats) error {
	if rec.TID < 0 || rec.TID >= rp.Engine.MaxThreads() {
		return fmt.Errorf("tid %d: %w", rec.TID, events.ErrThreadRange)
	}
	st.Threads[rec.TID]++

	if rec.Entry != "" {
		if rp.Allow.Allows(rec.Entry) {
			u := rp.Engine.OnFunctionEntry(rec.TID, rec.Entry, rec.File, rec.Line)
			u.Apply()
			st.Entries++
			rp.Log.Debug().
				Int("tid", rec.TID).
				Str("func", rec.Entry).
				Str("file", rec.File).
				Uint32("line", rec.Line).
				Int("event", u.EventID()).
				Msg("function entry")
		} else {
			st.Filtered++
		}
	}

	if rec.Raw != 0 {
		switch disasm.CallKind(rec.Raw) {
		case disasm.KindBL:
			st.BL++
		case disasm.KindBLR:
			st.BLR++
		}
	}

	rp.Engine.OnInstructionRetired(rec.TID, rec.File, rec.Line)
	return nil
}
