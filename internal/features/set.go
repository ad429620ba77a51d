package features

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Entry is one transport-decoded (name, value) pair.
type Entry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Set is a per-request mapping of feature name to value. Names are unique; Add refuses
// to overwrite an existing name.
type Set struct {
	names  []string
	values map[string]float64
}

// NewSet builds a Set from decoded entries. Checks run as whole passes in this order:
// empty input, empty names, duplicate names. Value validity is left to Build.
func NewSet(entries []Entry) (*Set, error) {
	if len(entries) == 0 {
		return nil, &Fault{Kind: EmptyInput}
	}
	for _, e := range entries {
		if e.Name == "" {
			return nil, &Fault{Kind: InvalidName}
		}
	}

	s := &Set{
		names:  make([]string, 0, len(entries)),
		values: make(map[string]float64, len(entries)),
	}
	for _, e := range entries {
		if err := s.Add(e.Name, e.Value); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts name. It fails with InvalidName for "" and DuplicateFeature when name is
// already present, even if the values are equal.
func (s *Set) Add(name string, value float64) error {
	if name == "" {
		return &Fault{Kind: InvalidName}
	}
	if s.values == nil {
		s.values = make(map[string]float64)
	}
	if _, exists := s.values[name]; exists {
		return &Fault{Kind: DuplicateFeature, Name: name}
	}
	s.names = append(s.names, name)
	s.values[name] = value
	return nil
}

// Len returns the number of features in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Value looks up a feature by name.
func (s *Set) Value(name string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Names returns feature names in insertion order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Map returns a copy of the set as a plain map.
func (s *Set) Map() map[string]float64 {
	out := make(map[string]float64, s.Len())
	for _, n := range s.Names() {
		out[n] = s.values[n]
	}
	return out
}

// Coerce converts an untyped transport value to float64. Anything that is not a finite
// real number comes back as NaN so Build reports it as InvalidValue.
func Coerce(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
