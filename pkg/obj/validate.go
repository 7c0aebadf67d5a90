package obj

import "fmt"

// Validate reports ErrEmptyOrDegenerate when serializing the model would
// produce no vertices or no faces.
func (m *Model) Validate() error {
	vertices, faces := m.EmittedCounts()
	switch {
	case vertices == 0:
		return fmt.Errorf("%w: no vertices", ErrEmptyOrDegenerate)
	case faces == 0:
		return fmt.Errorf("%w: no faces", ErrEmptyOrDegenerate)
	}
	return nil
}

// ValidateText parses OBJ text and checks that it yields usable geometry.
// Parse failures wrap ErrMalformedLine; unusable geometry wraps
// ErrEmptyOrDegenerate.
func ValidateText(text string) (*Model, error) {
	m, err := ParseString(text)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}
