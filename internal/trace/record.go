// Package trace replays recorded execution traces into an events.Engine.
//
// A trace is JSONL: one Record per retired instruction, in execution order
// across all threads.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Record is one retired instruction.
type Record struct {
	TID   int    `json:"tid"`
	PC    uint64 `json:"pc"`
	Raw   uint32 `json:"raw,omitempty"`   // ARM64 instruction word, if captured
	File  string `json:"file,omitempty"`  // "" when debug info is missing
	Line  uint32 `json:"line,omitempty"`  // 0 when debug info is missing
	Entry string `json:"entry,omitempty"` // set on the first instruction of a function
}

// ReadJSONL decodes every record in path.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeJSONL[T](f)
}

// DecodeJSONL decodes every record in r.
func DecodeJSONL[T any](r io.Reader) ([]T, error) {
	var records []T
	dec := json.NewDecoder(r)
	for dec.More() {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			return records, fmt.Errorf("line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
