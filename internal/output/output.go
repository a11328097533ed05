// Package output writes slicer results to files.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"slicer/internal/events"
)

// WriteReport writes rep to path, truncating any existing file, and returns
// the number of bytes written.
func WriteReport(path string, rep events.Report) (int64, error) {
	if err := mkdirFor(path); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0664)
	if err != nil {
		return 0, fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	n, err := rep.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("output: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return n, fmt.Errorf("output: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("output: close %s: %w", path, err)
	}
	return n, nil
}

// WriteDOT writes a Graphviz document to path.
func WriteDOT(path, dot string) error {
	if err := mkdirFor(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	if err := mkdirFor(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("output: close %s: %w", path, err)
	}
	return nil
}

func mkdirFor(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", dir, err)
	}
	return nil
}
