package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "replay":
		err = cmdReplay(os.Args[2:])
	case "summary":
		err = cmdSummary(os.Args[2:], os.Stdout)
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "listing":
		err = cmdListing(os.Args[2:], os.Stdout)
	case "serve":
		err = cmdServe(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `slicer: instruction slice profiler

Usage:
  slicer replay  --trace <file> [--output output.log]   Replay a trace and write the slice report
  slicer summary --in <report> [--top n] [--by key]     Print the heaviest slices
  slicer graph   --in <report> --out <file.dot>         Render the caller/callee slice graph
  slicer listing --trace <file>                         ARM64 listing of a trace
  slicer serve                                          MCP server over stdio

Replay flags:
  --funcs <file>          Only track functions listed in file (one per line)
  --threads <n>           Thread id ceiling (default 500)
  --capacity <n>          Call events per thread (default 10000)
  --dot <file>            Also write the slice graph as DOT
  --summary-json <file>   Also write replay and report statistics as JSON

Summary flags:
  --by total|avg|max|calls   Sort key (default total)
  --no-color                 Plain output

Graph flags:
  --title <t>        Graph title (default: report name)
  --plain            Unweighted caller/callee graph
  --max-edges <n>    Keep only the heaviest edges (0 = all)

Listing flags:
  --tid <n>          Only list one thread

Logging flags (replay, graph, serve):
  --verbose          Debug logging
  --log-json         JSON log lines instead of console output
`)
}
