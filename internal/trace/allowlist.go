package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// AllowList restricts which function entries reach the engine.
// An empty list admits every function.
type AllowList struct {
	names map[string]struct{}

	// Missing is set when the list was requested but its file does not exist.
	Missing bool
}

// NewAllowList builds a list from names.
func NewAllowList(names ...string) AllowList {
	al := AllowList{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		al.names[n] = struct{}{}
	}
	return al
}

// LoadAllowList reads one function name per line from path.
// An empty path or a missing file yields an empty list and no error.
func LoadAllowList(path string) (AllowList, error) {
	if path == "" {
		return AllowList{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return AllowList{Missing: true}, nil
	}
	if err != nil {
		return AllowList{}, fmt.Errorf("trace: open allow-list: %w", err)
	}
	defer f.Close()
	return ParseAllowList(f)
}

// ParseAllowList reads one function name per line. Blank lines are skipped
// and surrounding whitespace is trimmed.
func ParseAllowList(r io.Reader) (AllowList, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := sc.Err(); err != nil {
		return AllowList{}, fmt.Errorf("trace: read allow-list: %w", err)
	}
	return NewAllowList(names...), nil
}

// Len returns the number of names in the list.
func (al AllowList) Len() int { return len(al.names) }

// Allows reports whether function name should be tracked.
func (al AllowList) Allows(name string) bool {
	if len(al.names) == 0 {
		return true
	}
	_, ok := al.names[name]
	return ok
}
