package obj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Modifier names with dedicated handling.
const (
	ModOverallSize = "overall_size"
	ModSmoothness  = "smoothness"
	ModSeedless    = "seedless"

	SizeSuffix    = "_size"
	VisibleSuffix = "_visible"
	HasPrefix     = "has_"

	SeedGroup = "seed"
)

// Modifier is a single named modifier value.
type Modifier struct {
	Name  string
	Value any
}

// Modifiers is an ordered modifier mapping. Apply evaluates entries in
// order, so JSON objects decode with their key order preserved.
type Modifiers []Modifier

// Set replaces the value of an existing entry or appends a new one.
func (ms *Modifiers) Set(name string, value any) {
	for i := range *ms {
		if (*ms)[i].Name == name {
			(*ms)[i].Value = value
			return
		}
	}
	*ms = append(*ms, Modifier{Name: name, Value: value})
}

// Get returns the value for name.
func (ms Modifiers) Get(name string) (any, bool) {
	for _, mod := range ms {
		if mod.Name == name {
			return mod.Value, true
		}
	}
	return nil, false
}

// Names returns the modifier names in order.
func (ms Modifiers) Names() []string {
	names := make([]string, len(ms))
	for i, mod := range ms {
		names[i] = mod.Name
	}
	return names
}

// UnmarshalJSON decodes a JSON object keeping key order. A repeated key
// keeps its first position and its last value.
func (ms *Modifiers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*ms = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("modifiers: expected object, got %v", tok)
	}

	out := Modifiers{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("modifiers: expected key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("modifiers: value of %q: %w", key, err)
		}
		out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ms = out
	return nil
}

// MarshalJSON encodes the modifiers as a JSON object in order.
func (ms Modifiers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, mod := range ms {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(mod.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(mod.Value)
		if err != nil {
			return nil, fmt.Errorf("modifier %q: %w", mod.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Apply maps each modifier onto a transform, in order:
//
//	overall_size      ScaleAll(value)
//	<group>_size      ScaleGroup(group, value)
//	smoothness        SmoothNormals(value / 100)
//	seedless = true   RemoveGroup("seed")
//	<key> = false     RemoveGroup(key without "_visible" suffix and "has_" prefix)
//
// Any other entry is ignored.
func Apply(m *Model, mods Modifiers) {
	for _, mod := range mods {
		name := mod.Name
		switch {
		case name == ModOverallSize:
			if f, ok := m.floatValue(mod); ok {
				m.ScaleAll(f)
			}

		case strings.HasSuffix(name, SizeSuffix):
			if f, ok := m.floatValue(mod); ok {
				m.ScaleGroup(strings.TrimSuffix(name, SizeSuffix), f)
			}

		case name == ModSmoothness:
			if f, ok := m.floatValue(mod); ok {
				m.SmoothNormals(f / 100)
			}

		case name == ModSeedless && mod.Value == true:
			m.RemoveGroup(SeedGroup)

		default:
			if b, ok := mod.Value.(bool); ok && !b {
				group := strings.TrimSuffix(name, VisibleSuffix)
				group = strings.TrimPrefix(group, HasPrefix)
				m.RemoveGroup(group)
			}
		}
	}
}

func (m *Model) floatValue(mod Modifier) (float64, bool) {
	f, err := ToFloat(mod.Value)
	if err != nil {
		m.note(KindInvalidModifier, "%s: %v", mod.Name, err)
		return 0, false
	}
	return f, true
}

// ToFloat converts a decoded modifier value to float64. Numbers, numeric
// strings and booleans (1 or 0) are accepted.
func ToFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not a number", v)
	}
}

// Modify parses text, applies the modifiers and serializes the result.
// The returned model carries the diagnostics gathered along the way.
func Modify(text string, mods Modifiers) (string, *Model, error) {
	m, err := ParseString(text)
	if err != nil {
		return "", nil, err
	}
	Apply(m, mods)
	if err := m.Validate(); err != nil {
		return "", m, err
	}
	return Serialize(m), m, nil
}
