package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"slicer/internal/analyzer"
	"slicer/internal/events"
	"slicer/internal/output"
	"slicer/internal/render"
	"slicer/internal/trace"
)

type replayConfig struct {
	Trace       string
	Output      string
	Funcs       string
	Threads     int
	Capacity    int
	DOT         string
	SummaryJSON string
}

// replaySummary is the --summary-json document.
type replaySummary struct {
	Trace  string              `json:"trace"`
	Report string              `json:"report"`
	Replay trace.Stats         `json:"replay"`
	Slices analyzer.Statistics `json:"slices"`
}

func cmdReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	var cfg replayConfig
	fs.StringVar(&cfg.Trace, "trace", "", "execution trace (JSONL)")
	fs.StringVar(&cfg.Output, "output", "output.log", "slice report path")
	fs.StringVar(&cfg.Funcs, "funcs", "", "file listing the functions to track, one per line")
	fs.IntVar(&cfg.Threads, "threads", events.DefaultMaxThreads, "thread id ceiling")
	fs.IntVar(&cfg.Capacity, "capacity", events.DefaultCapacity, "call events per thread")
	fs.StringVar(&cfg.DOT, "dot", "", "also write the slice graph as DOT")
	fs.StringVar(&cfg.SummaryJSON, "summary-json", "", "also write statistics as JSON")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.Trace == "" {
		return fmt.Errorf("--trace is required")
	}
	if cfg.Threads <= 0 || cfg.Capacity <= 0 {
		return fmt.Errorf("--threads and --capacity must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err := runReplay(ctx, cfg, lf.logger())
	return err
}

func runReplay(ctx context.Context, cfg replayConfig, log zerolog.Logger) (replaySummary, error) {
	sum := replaySummary{Trace: cfg.Trace, Report: cfg.Output}

	allow, err := trace.LoadAllowList(cfg.Funcs)
	if err != nil {
		return sum, err
	}
	switch {
	case allow.Missing:
		log.Warn().Msgf("no file %s found, proceeding with all functions", cfg.Funcs)
	case allow.Len() > 0:
		log.Info().Int("functions", allow.Len()).Str("file", cfg.Funcs).Msg("tracking listed functions only")
	}

	f, err := os.Open(cfg.Trace)
	if err != nil {
		return sum, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	eng := events.New(events.Options{MaxThreads: cfg.Threads, Capacity: cfg.Capacity})
	defer eng.Shutdown()

	rp := trace.Replayer{Engine: eng, Allow: allow, Log: log}
	st, err := rp.Replay(ctx, f)
	if err != nil {
		return sum, fmt.Errorf("replay %s: %w", cfg.Trace, err)
	}
	sum.Replay = st
	log.Info().
		Int("records", st.Records).
		Int("entries", st.Entries).
		Int("filtered", st.Filtered).
		Int("threads", len(st.Threads)).
		Msg("replayed trace")

	eng.Flush()
	rep := eng.ExportReport()

	n, err := output.WriteReport(cfg.Output, rep)
	if err != nil {
		return sum, err
	}
	log.Info().Msgf("wrote %s (%d bytes)", cfg.Output, n)

	sum.Slices = analyzer.ComputeStatistics(rep.Rows)

	if cfg.DOT != "" {
		title := strings.TrimSuffix(filepath.Base(cfg.Trace), filepath.Ext(cfg.Trace))
		dot := render.SliceGraphDOT(rep.Rows, title, render.NASA, 0)
		if err := output.WriteDOT(cfg.DOT, dot); err != nil {
			return sum, err
		}
		log.Info().Msgf("wrote %s (%d bytes)", cfg.DOT, len(dot))
	}

	if cfg.SummaryJSON != "" {
		if err := output.WriteJSON(cfg.SummaryJSON, sum); err != nil {
			return sum, err
		}
		log.Info().Msgf("wrote %s", cfg.SummaryJSON)
	}
	return sum, nil
}
