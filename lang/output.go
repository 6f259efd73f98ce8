package lang

import (
	"iter"
	"log/slog"
)

// Output is the generated source of one unit and of the sub-units declared
// inside it.
type Output struct {
	Name       string
	Parameters []string
	Source     string

	// Diagnostics is set on the root unit only.
	Diagnostics []Diagnostic

	subUnits map[string]*Output
	order    []string
}

func newOutput(name string, params []string) *Output {
	return &Output{
		Name:       name,
		Parameters: params,
		subUnits:   make(map[string]*Output),
	}
}

// add registers sub as a sub-unit. Names are unique within one unit.
func (o *Output) add(sub *Output) error {
	if _, ok := o.subUnits[sub.Name]; ok {
		return ErrDuplicateTemplate.With(
			slog.String("unit", o.Name),
			slog.String("template", sub.Name),
		)
	}

	o.subUnits[sub.Name] = sub
	o.order = append(o.order, sub.Name)

	return nil
}

// SubUnit returns the sub-unit declared with the given name.
func (o *Output) SubUnit(name string) (*Output, bool) {
	sub, ok := o.subUnits[name]

	return sub, ok
}

// SubUnits returns the names of the sub-units in declaration order.
func (o *Output) SubUnits() []string {
	names := make([]string, len(o.order))
	copy(names, o.order)

	return names
}

// All yields o and every unit below it, parents before children.
func (o *Output) All() iter.Seq[*Output] {
	return func(yield func(*Output) bool) {
		o.walk(yield)
	}
}

func (o *Output) walk(yield func(*Output) bool) bool {
	if !yield(o) {
		return false
	}

	for _, name := range o.order {
		if !o.subUnits[name].walk(yield) {
			return false
		}
	}

	return true
}

// LogValue implements slog.LogValuer.
func (o *Output) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("unit", o.Name),
		slog.Int("source_bytes", len(o.Source)),
		slog.Any("sub_units", o.order),
	)
}
