package features

import (
	"fmt"
	"strings"
)

// Schema is the ordered list of feature names a model requires. It is fixed at startup
// and never mutated afterwards, so it can be shared by concurrent requests.
type Schema struct {
	names []string
}

// NewSchema validates names and freezes a private copy of them.
func NewSchema(names []string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, fmt.Errorf("feature schema cannot be empty")
	}
	s := Schema{names: make([]string, len(names))}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return Schema{}, fmt.Errorf("feature schema entry %d is empty", i)
		}
		if seen[n] {
			return Schema{}, fmt.Errorf("feature schema lists %q twice", n)
		}
		s.names[i] = n
		seen[n] = true
	}
	return s, nil
}

// MustSchema is NewSchema for static schemas; it panics on invalid input.
func MustSchema(names ...string) Schema {
	s, err := NewSchema(names)
	if err != nil {
		panic(err)
	}
	return s
}

// Len is the length of every vector built against this schema.
func (s Schema) Len() int { return len(s.names) }

// Names returns a copy of the ordered names.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
