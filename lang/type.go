package lang

// Kind identifies one of the inferred type tags.
type Kind int

const (
	// KindUnknown is a dynamically typed value resolved at render time.
	KindUnknown Kind = iota

	// KindText is a character string.
	KindText

	// KindInteger is a 64-bit integer.
	KindInteger

	// KindFloat is a 64-bit floating-point number.
	KindFloat

	// KindBoolean is a truth value.
	KindBoolean

	// KindMap is an associative map keyed by text.
	KindMap

	// KindNamed is an externally defined type referenced by name.
	KindNamed
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "Unknown"
	case KindText:
		return "Text"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindMap:
		return "Map"
	case KindNamed:
		return "Named"
	default:
		return "Invalid"
	}
}

// Type is an inferred static type.
//
// Type is comparable; two values are equal iff they have the same kind and,
// for named types, the same name.
type Type struct {
	kind Kind
	name string
}

// The closed set of built-in types.
var (
	TypeUnknown = Type{kind: KindUnknown}
	TypeText    = Type{kind: KindText}
	TypeInteger = Type{kind: KindInteger}
	TypeFloat   = Type{kind: KindFloat}
	TypeBoolean = Type{kind: KindBoolean}
	TypeMap     = Type{kind: KindMap}
)

// NamedType returns the type of an externally defined dynamic type.
// The name is emitted verbatim wherever the type is materialized.
func NamedType(name string) Type {
	return Type{kind: KindNamed, name: name}
}

// Kind returns the type tag.
func (t Type) Kind() Kind { return t.kind }

// IsValueType reports whether values of t are primitive-like and can never
// hold null.
func (t Type) IsValueType() bool {
	switch t.kind {
	case KindInteger, KindFloat, KindBoolean:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether t is Integer or Float.
func (t Type) IsNumeric() bool {
	return t.kind == KindInteger || t.kind == KindFloat
}

// DefaultValue returns the target literal a variable of type t holds before
// its first assignment.
func (t Type) DefaultValue() string {
	switch t.kind {
	case KindInteger:
		return "0"
	case KindFloat:
		return "0.0"
	case KindBoolean:
		return "false"
	default:
		return nullLiteral
	}
}

// TargetName returns the name used to declare a variable of type t in
// generated source.
func (t Type) TargetName() string {
	switch t.kind {
	case KindText:
		return "String"
	case KindInteger:
		return "long"
	case KindFloat:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindMap:
		return "Map"
	case KindNamed:
		return t.name
	default:
		return "Object"
	}
}

// String returns a string representation of the type.
func (t Type) String() string {
	if t.kind == KindNamed {
		return t.name
	}

	return t.kind.String()
}
