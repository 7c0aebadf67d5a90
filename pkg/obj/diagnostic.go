package obj

import "fmt"

// DiagnosticKind classifies a non-fatal anomaly.
type DiagnosticKind int

const (
	KindUnknownGroup      DiagnosticKind = iota // Transform named a missing or empty group
	KindDanglingReference                       // Face refers to a removed or out-of-range element
	KindIgnoredDirective                        // Directive dropped instead of passed through
	KindInvalidModifier                         // Modifier value could not be converted
)

// String returns a human-readable kind name.
func (k DiagnosticKind) String() string {
	switch k {
	case KindUnknownGroup:
		return "UnknownGroup"
	case KindDanglingReference:
		return "DanglingReference"
	case KindIgnoredDirective:
		return "IgnoredDirective"
	case KindInvalidModifier:
		return "InvalidModifier"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Diagnostic records an anomaly that was handled locally.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

func (m *Model) note(kind DiagnosticKind, format string, args ...any) {
	m.Diagnostics = append(m.Diagnostics, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
