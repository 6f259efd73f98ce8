package lang

// Identifiers and entry points of the render runtime that generated source
// refers to by fixed name.
const (
	outBuffer     = "out"
	renderContext = "renderContext"
	bindingsMap   = "bindings"
	argumentsMap  = "arguments"
	objectModel   = renderContext + ".getObjectModel()"

	resolveProperty = objectModel + ".resolveProperty"
	toBooleanCall   = objectModel + ".toBoolean"
	toStringCall    = objectModel + ".toString"
	toNumberCall    = objectModel + ".toNumber"
	toCollection    = objectModel + ".toCollection"
	strictEquals    = objectModel + ".strictEquals"
	logicalAnd      = objectModel + ".and"
	logicalOr       = objectModel + ".or"

	runtimeCall    = renderContext + ".call"
	callUnit       = "callUnit"
	mapBuilder     = "obj"
	mapWith        = "with"
	templateLookup = "getProperty"
	writeMethod    = "write"
	mapGet         = "get"

	nullLiteral = "null"

	collectionType = "Collection<Object>"
)

// reservedNames are identifiers generated names must never shadow.
var reservedNames = map[string]struct{}{
	outBuffer:      {},
	renderContext:  {},
	bindingsMap:    {},
	argumentsMap:   {},
	callUnit:       {},
	mapBuilder:     {},
	templateLookup: {},
	"this":         {},
	"super":        {},
	nullLiteral:    {},
	"true":         {},
	"false":        {},
}

// isReserved reports whether name is a runtime identifier.
func isReserved(name string) bool {
	_, ok := reservedNames[name]

	return ok
}
