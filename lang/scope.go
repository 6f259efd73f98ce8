package lang

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Scope is the storage class of a variable.
type Scope int

const (
	// ScopeExternal variables are fetched once from the bindings or arguments
	// map at the start of the unit.
	ScopeExternal Scope = iota

	// ScopeGlobal variables are declared at the start of the unit and may be
	// assigned anywhere in it.
	ScopeGlobal

	// ScopeLocal variables are declared at their binding site and live until
	// the enclosing block ends.
	ScopeLocal
)

// String returns a string representation of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeExternal:
		return "External"
	case ScopeGlobal:
		return "Global"
	case ScopeLocal:
		return "Local"
	default:
		return "Invalid"
	}
}

// Variable describes one template variable and how generated source refers
// to it.
type Variable struct {
	OriginalName string
	AssignedName string
	Type         Type
	Scope        Scope

	// Template marks a reference to a callable sub-unit.
	Template bool

	// Parameter marks an external variable read from the arguments map.
	Parameter bool

	listCoercion string
}

// ListCoercion returns the name of the collection cache allocated for v, or
// the empty string if none was allocated.
func (v *Variable) ListCoercion() string { return v.listCoercion }

// LogValue implements slog.LogValuer.
func (v *Variable) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", v.OriginalName),
		slog.String("assigned", v.AssignedName),
		slog.String("type", v.Type.String()),
		slog.String("scope", v.Scope.String()),
	)
}

// Prefixes of generated names, one per kind of variable.
const (
	localPrefix    = "var_"
	globalPrefix   = "_global_"
	externalPrefix = "_dynamic_"
	templatePrefix = "_template_"
	cachePrefix    = "var_collection_"
)

// nameAllocator hands out generated identifiers for one compilation.
//
// Every name ends in "_<n>" with n taken from a counter that only grows, so
// two allocations can never produce the same text.
type nameAllocator struct {
	next int
	used map[string]struct{}
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: make(map[string]struct{})}
}

func (a *nameAllocator) allocate(prefix, name string) (string, error) {
	gen := prefix + sanitizeName(name) + "_" + strconv.Itoa(a.next)
	a.next++

	if _, ok := a.used[gen]; ok || isReserved(gen) {
		return "", ErrNameCollision.With(
			slog.String("name", name),
			slog.String("generated", gen),
		)
	}

	a.used[gen] = struct{}{}

	return gen, nil
}

// sanitizeName maps every character that is not an ASCII letter, digit, or
// underscore to an underscore.
func sanitizeName(name string) string {
	if name == "" {
		return "v"
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// Symbols is the symbol table of one unit.
//
// Local variables live on a stack, innermost last. Global, external, and
// template variables live in a unit-wide table consulted after the stack, so
// the innermost binding of a name always wins, including over a parameter
// of the same name.
type Symbols struct {
	stack  []*Variable
	unit   map[string]*Variable
	all    []*Variable
	names  *nameAllocator
	params map[string]struct{}
}

// NewSymbols returns an empty symbol table for a unit with the given
// parameter names.
func NewSymbols(params ...string) *Symbols {
	return newSymbols(newNameAllocator(), params)
}

func newSymbols(names *nameAllocator, params []string) *Symbols {
	s := &Symbols{
		unit:   make(map[string]*Variable),
		names:  names,
		params: make(map[string]struct{}, len(params)),
	}

	for _, p := range params {
		s.params[p] = struct{}{}
	}

	return s
}

// IsParameter reports whether name is a declared parameter of the unit.
func (s *Symbols) IsParameter(name string) bool {
	_, ok := s.params[name]

	return ok
}

func (s *Symbols) create(
	name, prefix string,
	typ Type,
	scope Scope,
) (*Variable, error) {
	gen, err := s.names.allocate(prefix, name)
	if err != nil {
		return nil, err
	}

	v := &Variable{
		OriginalName: name,
		AssignedName: gen,
		Type:         typ,
		Scope:        scope,
	}

	s.all = append(s.all, v)

	return v, nil
}

// DeclareVariable pushes a new local variable.
func (s *Symbols) DeclareVariable(name string, typ Type) (*Variable, error) {
	v, err := s.create(name, localPrefix, typ, ScopeLocal)
	if err != nil {
		return nil, err
	}

	s.stack = append(s.stack, v)

	return v, nil
}

// DeclareGlobal returns the variable name currently resolves to, or creates
// a global of unknown type if it resolves to nothing. The second result
// reports whether the variable was created.
func (s *Symbols) DeclareGlobal(name string) (*Variable, bool, error) {
	if v, ok := s.Lookup(name); ok {
		return v, false, nil
	}

	v, err := s.create(name, globalPrefix, TypeUnknown, ScopeGlobal)
	if err != nil {
		return nil, false, err
	}

	s.unit[name] = v

	return v, true, nil
}

// DeclareTemplate creates a global variable referring to a callable
// sub-unit. It replaces any unit-wide variable of the same name.
func (s *Symbols) DeclareTemplate(name string) (*Variable, error) {
	v, err := s.create(name, templatePrefix, TypeUnknown, ScopeGlobal)
	if err != nil {
		return nil, err
	}

	v.Template = true
	s.unit[name] = v

	return v, nil
}

// Lookup resolves name to the nearest enclosing variable without declaring
// anything.
func (s *Symbols) Lookup(name string) (*Variable, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].OriginalName == name {
			return s.stack[i], true
		}
	}

	v, ok := s.unit[name]

	return v, ok
}

// ResolveOrBindExternally resolves name like [Symbols.Lookup]. An unresolved
// name is bound to a new external variable, read from the arguments map if
// name is a parameter of the unit and from the bindings map otherwise.
func (s *Symbols) ResolveOrBindExternally(name string) (*Variable, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}

	v, err := s.create(name, externalPrefix, TypeUnknown, ScopeExternal)
	if err != nil {
		return nil, err
	}

	v.Parameter = s.IsParameter(name)
	s.unit[name] = v

	return v, nil
}

// EndVariable pops the innermost local variable. A popped variable is never
// resolved again.
func (s *Symbols) EndVariable() (*Variable, error) {
	n := len(s.stack)
	if n == 0 {
		return nil, ErrUnbalanced.With(slog.String("reason", "no variable in scope"))
	}

	v := s.stack[n-1]
	s.stack[n-1] = nil
	s.stack = s.stack[:n-1]

	return v, nil
}

// AssignedName returns the generated name that name resolves to.
func (s *Symbols) AssignedName(name string) (string, error) {
	v, err := s.ResolveOrBindExternally(name)
	if err != nil {
		return "", err
	}

	return v.AssignedName, nil
}

// RequireListCoercion returns the collection cache name of v, allocating it
// on first use.
func (s *Symbols) RequireListCoercion(v *Variable) (string, error) {
	if v.listCoercion != "" {
		return v.listCoercion, nil
	}

	gen, err := s.names.allocate(cachePrefix, v.OriginalName)
	if err != nil {
		return "", err
	}

	v.listCoercion = gen

	return gen, nil
}

// ShadowsExternal reports whether name currently resolves to an external
// variable.
func (s *Symbols) ShadowsExternal(name string) bool {
	v, ok := s.Lookup(name)

	return ok && v.Scope == ScopeExternal
}

// Depth returns the number of local variables in scope.
func (s *Symbols) Depth() int { return len(s.stack) }

// All returns every variable created in the unit, in creation order,
// including those already ended.
func (s *Symbols) All() []*Variable {
	all := make([]*Variable, len(s.all))
	copy(all, s.all)

	return all
}

// Names returns the template names of the variables currently resolvable,
// innermost first and without duplicates.
func (s *Symbols) Names() []string {
	seen := make(map[string]struct{}, len(s.stack)+len(s.unit))
	names := make([]string, 0, len(s.stack)+len(s.unit))

	for i := len(s.stack) - 1; i >= 0; i-- {
		name := s.stack[i].OriginalName
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	for _, name := range sortedKeys(s.unit) {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
