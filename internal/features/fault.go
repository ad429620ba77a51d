// Package features turns a request's bag of named feature values into the fixed-order
// numeric vector a model consumes.
//
// Validation never panics and never overwrites: every malformed input is reported as a
// *Fault naming the offending feature(s). Extra names outside the schema are ignored,
// missing ones are not.
package features

import (
	"errors"
	"fmt"
	"strings"
)

// FaultKind classifies a client-side validation failure.
type FaultKind int

const (
	EmptyInput FaultKind = iota + 1
	InvalidName
	DuplicateFeature
	InvalidValue
	MissingFeatures
)

func (k FaultKind) String() string {
	switch k {
	case EmptyInput:
		return "EmptyInput"
	case InvalidName:
		return "InvalidName"
	case DuplicateFeature:
		return "DuplicateFeature"
	case InvalidValue:
		return "InvalidValue"
	case MissingFeatures:
		return "MissingFeatures"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Fault is a validation failure caused by the caller's input.
type Fault struct {
	Kind    FaultKind
	Name    string   // DuplicateFeature, InvalidValue
	Missing []string // MissingFeatures, sorted
}

func (f *Fault) Error() string {
	switch f.Kind {
	case EmptyInput:
		return "No features provided"
	case InvalidName:
		return "Feature name cannot be empty"
	case DuplicateFeature:
		return "Duplicate feature name: " + f.Name
	case InvalidValue:
		return "Invalid feature value: " + f.Name
	case MissingFeatures:
		return "Missing features: " + strings.Join(f.Missing, ", ")
	default:
		return "invalid features"
	}
}

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, &Fault{Kind: MissingFeatures}).
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return t.Kind == f.Kind
}

// AsFault extracts a *Fault from err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
