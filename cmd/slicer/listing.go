package main

import (
	"flag"
	"fmt"
	"io"

	"slicer/internal/disasm"
	"slicer/internal/trace"
)

func cmdListing(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("listing", flag.ExitOnError)
	tracePath := fs.String("trace", "", "execution trace (JSONL)")
	tid := fs.Int("tid", -1, "only list this thread (-1 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tracePath == "" {
		return fmt.Errorf("--trace is required")
	}

	recs, err := trace.ReadJSONL[trace.Record](*tracePath)
	if err != nil {
		return fmt.Errorf("read trace: %w", err)
	}
	writeListing(w, recs, *tid)
	return nil
}

// writeListing prints one disassembled line per record. A header line marks
// every function entry and every change of thread.
func writeListing(w io.Writer, recs []trace.Record, tid int) {
	lastTID := -1
	for _, rec := range recs {
		if tid >= 0 && rec.TID != tid {
			continue
		}
		if rec.TID != lastTID {
			fmt.Fprintf(w, "; thread %d\n", rec.TID)
			lastTID = rec.TID
		}
		if rec.Entry != "" {
			fmt.Fprintf(w, "\n%s:\n", rec.Entry)
		}
		inst := disasm.Decode(rec.Raw, rec.PC)
		srcLine := func(disasm.Inst) string {
			if rec.File == "" {
				return ""
			}
			return fmt.Sprintf("%s:%d", rec.File, rec.Line)
		}
		io.WriteString(w, disasm.Format([]disasm.Inst{inst}, disasm.ControlAnnotator, srcLine))
	}
}
