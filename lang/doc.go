// Package lang compiles linearized template command streams into the source
// of render units.
//
// # Pipeline
//
// A unit is described by a stream of [Command] values in which every block
// form is split into start and end events. [Compile] walks the stream once:
//
//	commands ─▶ generator ─▶ Symbols (names, scopes)
//	                │
//	                └─▶ InferTypes ─▶ Translate ─▶ source lines
//
// After the last command each unit prepends the declarations of every
// external, global, and cache variable it created, and the result is an
// [Output] tree with one node per callable sub-template.
//
// # Types
//
// Inference is best effort. Every expression node receives one [Type]:
// literals are typed exactly, operators follow their registered rules, and
// anything resolved at render time (property access, runtime calls, list
// literals) is Unknown. Translation uses the types to emit native arithmetic
// and comparisons when it can, and falls back to the object model when an
// operand is Unknown.
//
// # Variables
//
// Names that resolve to nothing are never errors. They bind to the bindings
// map, or to the arguments map when the name is a parameter of the unit.
// Local variables shadow everything else, including parameters.
//
// # Documents
//
// A [Document] is the YAML or JSON form of one unit, with expressions written
// in expr-lang syntax:
//
//	name: list
//	parameters: [title]
//	commands:
//	  - out: "<h1>"
//	  - out-var: title
//	  - out: "</h1>"
//	  - loop: {list: items, item: item}
//	  - let: {var: label, expr: "item.name + ' (' + itemIndex + ')'"}
//	  - out-var: label
//	  - end: let
//	  - end: loop
//
// [RenderClass] wraps an [Output] in a complete class whose first line
// records the fingerprint of the document it was generated from.
package lang
