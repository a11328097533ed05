package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type logFlags struct {
	verbose *bool
	json    *bool
}

func addLogFlags(fs *flag.FlagSet) logFlags {
	return logFlags{
		verbose: fs.Bool("verbose", false, "debug logging"),
		json:    fs.Bool("log-json", false, "log JSON lines instead of console output"),
	}
}

func (lf logFlags) logger() zerolog.Logger {
	return newLogger(os.Stderr, *lf.verbose, *lf.json)
}

func newLogger(w io.Writer, verbose, jsonLines bool) zerolog.Logger {
	if !jsonLines {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
