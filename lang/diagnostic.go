package lang

import (
	"fmt"
	"log/slog"
)

// Severity is the importance of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal finding about a compiled unit. Diagnostics never
// change the generated source.
type Diagnostic struct {
	Severity Severity
	Unit     string
	Index    int
	Variable string
	Message  string
}

// String returns a one-line description of the diagnostic.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s[%d]: %s", d.Severity, d.Unit, d.Index, d.Message)
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("severity", d.Severity.String()),
		slog.String("unit", d.Unit),
		slog.Int("index", d.Index),
		slog.String("variable", d.Variable),
		slog.String("message", d.Message),
	)
}

// Diagnostics collects the diagnostics of one compilation in the order they
// were raised.
type Diagnostics struct {
	items []Diagnostic
}

// Add appends d.
func (ds *Diagnostics) Add(d Diagnostic) {
	ds.items = append(ds.items, d)
}

// Len returns the number of diagnostics.
func (ds *Diagnostics) Len() int {
	if ds == nil {
		return 0
	}

	return len(ds.items)
}

// Items returns a copy of the collected diagnostics.
func (ds *Diagnostics) Items() []Diagnostic {
	if ds == nil {
		return nil
	}

	items := make([]Diagnostic, len(ds.items))
	copy(items, ds.items)

	return items
}

// Warnings returns the number of warnings.
func (ds *Diagnostics) Warnings() int {
	n := 0

	for _, d := range ds.Items() {
		if d.Severity == SeverityWarning {
			n++
		}
	}

	return n
}

func shadowWarning(unit string, index int, name string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Unit:     unit,
		Index:    index,
		Variable: name,
		Message:  fmt.Sprintf("variable %q shadows an external binding", name),
	}
}
