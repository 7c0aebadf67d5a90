// Package modifier describes the tunable parameters offered for a
// generated model and checks client-supplied values against them.
package modifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"

	"github.com/Faultbox/procgen3d/pkg/obj"
)

// Type is the value kind of a modifier, used by clients to pick a
// slider or a switch.
type Type string

const (
	Float   Type = "float"
	Integer Type = "integer"
	Boolean Type = "boolean"
)

// Validation errors. Validate wraps them with the offending key.
var (
	ErrUnknownModifier = errors.New("unknown modifier")
	ErrInvalidValue    = errors.New("invalid modifier value")
)

// Definition describes one modifier.
type Definition struct {
	Type        Type     `json:"type"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Default     any      `json:"default"`
	Description string   `json:"description,omitempty"`
}

// Set maps modifier names to their definitions.
type Set map[string]Definition

// Bound returns a pointer to v for Definition.Min and Definition.Max.
func Bound(v float64) *float64 {
	return &v
}

// OverallSize is the definition every model carries.
func OverallSize() Definition {
	return Definition{
		Type:        Float,
		Min:         Bound(0.1),
		Max:         Bound(5.0),
		Default:     1.0,
		Description: "Overall scale of the object",
	}
}

// Smoothness controls normal smoothing in percent.
func Smoothness() Definition {
	return Definition{
		Type:        Integer,
		Min:         Bound(0),
		Max:         Bound(100),
		Default:     50,
		Description: "Surface smoothness",
	}
}

// Defaults returns the set used when nothing better can be derived.
func Defaults() Set {
	return Set{
		obj.ModOverallSize: OverallSize(),
		obj.ModSmoothness:  Smoothness(),
	}
}

// EnsureOverallSize adds the overall_size definition if missing.
func (s Set) EnsureOverallSize() {
	if _, ok := s[obj.ModOverallSize]; !ok {
		s[obj.ModOverallSize] = OverallSize()
	}
}

// Sanitize drops definitions with an unknown type or an inverted range
// and reports how many were dropped.
func (s Set) Sanitize() int {
	dropped := 0
	for name, def := range s {
		switch def.Type {
		case Float, Integer, Boolean:
		default:
			delete(s, name)
			dropped++
			continue
		}
		if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
			delete(s, name)
			dropped++
		}
	}
	return dropped
}

// Names returns the modifier names sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every supplied value against its definition. All
// violations are reported together; use errors.Is with ErrUnknownModifier
// or ErrInvalidValue to classify them.
func (s Set) Validate(mods obj.Modifiers) error {
	var err error
	for _, mod := range mods {
		def, ok := s[mod.Name]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: %s", ErrUnknownModifier, mod.Name))
			continue
		}
		err = multierr.Append(err, def.check(mod.Name, mod.Value))
	}
	return err
}

func (d Definition) check(name string, value any) error {
	switch d.Type {
	case Boolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidValue, name)
		}
		return nil

	case Float, Integer:
		if _, isBool := value.(bool); isBool {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidValue, name)
		}
		if _, isString := value.(string); isString {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidValue, name)
		}
		f, err := obj.ToFloat(value)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s must be a number", ErrInvalidValue, name)
		}
		if d.Type == Integer && f != math.Trunc(f) {
			return fmt.Errorf("%w: %s must be an integer", ErrInvalidValue, name)
		}
		if d.Min != nil && f < *d.Min {
			return fmt.Errorf("%w: %s must be >= %g", ErrInvalidValue, name, *d.Min)
		}
		if d.Max != nil && f > *d.Max {
			return fmt.Errorf("%w: %s must be <= %g", ErrInvalidValue, name, *d.Max)
		}
		return nil
	}
	return fmt.Errorf("%w: %s has unsupported type %q", ErrInvalidValue, name, d.Type)
}
