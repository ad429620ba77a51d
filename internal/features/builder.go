package features

import "sort"

// Vector is a feature vector positionally aligned to a Schema.
type Vector []float64

// Build lays the set's values out in schema order.
//
// Faults, first match wins: EmptyInput, InvalidValue (in insertion order),
// MissingFeatures (every missing name, sorted). Names outside the schema are ignored.
// Build is pure: the same set and schema always give the same vector.
func Build(set *Set, schema Schema) (Vector, error) {
	if set.Len() == 0 {
		return nil, &Fault{Kind: EmptyInput}
	}

	for _, n := range set.names {
		if !isFinite(set.values[n]) {
			return nil, &Fault{Kind: InvalidValue, Name: n}
		}
	}

	var missing []string
	for _, n := range schema.names {
		if _, ok := set.Value(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &Fault{Kind: MissingFeatures, Missing: missing}
	}

	vec := make(Vector, len(schema.names))
	for i, n := range schema.names {
		vec[i], _ = set.Value(n)
	}
	return vec, nil
}

// BuildEntries is NewSet followed by Build.
func BuildEntries(entries []Entry, schema Schema) (Vector, error) {
	set, err := NewSet(entries)
	if err != nil {
		return nil, err
	}
	return Build(set, schema)
}
