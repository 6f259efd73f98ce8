package lang

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/htlc/log"
)

// blockKind is the kind of a block opened by a start command.
type blockKind int

const (
	blockConditional blockKind = iota
	blockBinding
	blockLoop
)

func (k blockKind) String() string {
	switch k {
	case blockConditional:
		return "if"
	case blockBinding:
		return "let"
	case blockLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// generator emits the source of one unit.
type generator struct {
	out    *Output
	syms   *Symbols
	src    source
	blocks []blockKind

	// templates holds the names of sub-units declared in this unit.
	templates map[string]struct{}

	// index is the position of the command being visited.
	index int

	logger   log.Logger
	bindings map[string]struct{}
	diags    *Diagnostics
}

func (c *compilation) newGenerator(name string, params []string) *generator {
	return &generator{
		out:       newOutput(name, params),
		syms:      newSymbols(c.names, params),
		templates: make(map[string]struct{}),
		logger:    c.logger.With(slog.String("unit", name)),
		bindings:  c.bindings,
		diags:     c.diags,
	}
}

func (g *generator) push(kind blockKind) {
	g.blocks = append(g.blocks, kind)
}

func (g *generator) pop(kind blockKind) error {
	n := len(g.blocks)
	if n == 0 {
		return ErrUnbalanced.With(
			slog.String("reason", "end without start"),
			slog.String("block", kind.String()),
		)
	}

	if open := g.blocks[n-1]; open != kind {
		return ErrUnbalanced.With(
			slog.String("reason", "mismatched end"),
			slog.String("block", kind.String()),
			slog.String("open", open.String()),
		)
	}

	g.blocks = g.blocks[:n-1]

	return nil
}

// checkShadow records a warning when name hides a host binding or an
// external variable already in use.
func (g *generator) checkShadow(name string) {
	_, bound := g.bindings[name]
	if !bound && !g.syms.ShadowsExternal(name) {
		return
	}

	d := shadowWarning(g.out.Name, g.index, name)
	g.diags.Add(d)
	g.logger.Warn("shadowed external binding", slog.Any("diagnostic", d))
}

// visit emits the source of one command. Sub-unit commands are handled by
// the compilation, which owns the generator stack.
func (g *generator) visit(cmd Command) error {
	switch c := cmd.(type) {
	case *ConditionalStart:
		return g.conditionalStart(c)

	case *ConditionalEnd:
		if err := g.pop(blockConditional); err != nil {
			return err
		}

		g.src.close()

		return nil

	case *BindingStart:
		return g.bindingStart(c)

	case *BindingEnd:
		return g.bindingEnd()

	case *GlobalBinding:
		return g.globalBinding(c)

	case *LoopStart:
		return g.loopStart(c)

	case *LoopEnd:
		return g.loopEnd()

	case *OutText:
		g.src.line("%s.%s(%s);", outBuffer, writeMethod, quoteText(c.Text))

		return nil

	case *OutVariable:
		return g.outVariable(c)

	case *ProcedureCall:
		return g.procedureCall(c)

	default:
		return ErrUnknownNode.With(slog.String("node", fmt.Sprintf("%T", cmd)))
	}
}

func (g *generator) conditionalStart(c *ConditionalStart) error {
	v, err := g.syms.ResolveOrBindExternally(c.Variable)
	if err != nil {
		return err
	}

	cond, err := coerceSource(v.AssignedName, v.Type, TypeBoolean)
	if err != nil {
		return err
	}

	if !c.Expected {
		cond = "!" + cond
	}

	g.push(blockConditional)
	g.src.open("if (%s) {", cond)

	return nil
}

func (g *generator) bindingStart(c *BindingStart) error {
	g.checkShadow(c.Variable)

	expr, typ, err := TranslateTyped(c.Expr, g.syms)
	if err != nil {
		return err
	}

	v, err := g.syms.DeclareVariable(c.Variable, typ)
	if err != nil {
		return err
	}

	g.push(blockBinding)
	g.src.open("{")
	g.src.line("%s %s = %s;", typ.TargetName(), v.AssignedName, expr)

	g.logger.Trace("declare local", slog.Any("variable", v))

	return nil
}

func (g *generator) bindingEnd() error {
	if err := g.pop(blockBinding); err != nil {
		return err
	}

	v, err := g.syms.EndVariable()
	if err != nil {
		return err
	}

	g.clearCache(v)
	g.src.close()

	return nil
}

func (g *generator) globalBinding(c *GlobalBinding) error {
	g.checkShadow(c.Variable)

	expr, typ, err := TranslateTyped(c.Expr, g.syms)
	if err != nil {
		return err
	}

	v, created, err := g.syms.DeclareGlobal(c.Variable)
	if err != nil {
		return err
	}

	// Globals and externals stay Unknown and take any value. A name that
	// resolves to a typed local keeps the local's declared type.
	if expr, err = coerceSource(expr, typ, v.Type); err != nil {
		return err
	}

	g.src.line("%s = %s;", v.AssignedName, expr)
	g.clearCache(v)

	g.logger.Trace("assign global",
		slog.Any("variable", v),
		slog.Bool("created", created),
	)

	return nil
}

func (g *generator) loopStart(c *LoopStart) error {
	list, err := g.syms.ResolveOrBindExternally(c.List)
	if err != nil {
		return err
	}

	cache, err := g.syms.RequireListCoercion(list)
	if err != nil {
		return err
	}

	g.checkShadow(c.Index)
	g.checkShadow(c.Item)

	index, err := g.syms.DeclareVariable(c.Index, TypeInteger)
	if err != nil {
		return err
	}

	item, err := g.syms.DeclareVariable(c.Item, TypeUnknown)
	if err != nil {
		return err
	}

	g.src.open("if (%s == %s) {", cache, nullLiteral)
	g.src.line("%s = %s(%s);", cache, toCollection, list.AssignedName)
	g.src.close()

	g.push(blockLoop)
	g.src.open("{")
	g.src.line("%s %s = 0;", TypeInteger.TargetName(), index.AssignedName)
	g.src.open("for (%s %s : %s) {", TypeUnknown.TargetName(), item.AssignedName, cache)

	return nil
}

func (g *generator) loopEnd() error {
	if err := g.pop(blockLoop); err != nil {
		return err
	}

	item, err := g.syms.EndVariable()
	if err != nil {
		return err
	}

	index, err := g.syms.EndVariable()
	if err != nil {
		return err
	}

	g.src.line("%s++;", index.AssignedName)
	g.clearCache(item)
	g.src.close()
	g.clearCache(index)
	g.src.close()

	return nil
}

func (g *generator) outVariable(c *OutVariable) error {
	v, err := g.syms.ResolveOrBindExternally(c.Variable)
	if err != nil {
		return err
	}

	text, err := coerceSource(v.AssignedName, v.Type, TypeText)
	if err != nil {
		return err
	}

	g.src.line("%s.%s(%s);", outBuffer, writeMethod, text)

	return nil
}

// declareTemplate binds name to a callable sub-unit of this unit.
func (g *generator) declareTemplate(name string) error {
	if _, ok := g.templates[name]; ok {
		return ErrDuplicateTemplate.With(slog.String("template", name))
	}

	v, err := g.syms.DeclareTemplate(name)
	if err != nil {
		return err
	}

	g.templates[name] = struct{}{}
	g.src.line("%s = %s(%s);", v.AssignedName, templateLookup, quoteText(name))

	return nil
}

func (g *generator) procedureCall(c *ProcedureCall) error {
	tpl, err := g.syms.ResolveOrBindExternally(c.Template)
	if err != nil {
		return err
	}

	args := mapBuilder + "()"

	if c.Arguments != "" {
		v, err := g.syms.ResolveOrBindExternally(c.Arguments)
		if err != nil {
			return err
		}

		args = v.AssignedName
	}

	g.src.line("%s(%s, %s, %s, %s);",
		callUnit, outBuffer, renderContext, tpl.AssignedName, args)

	return nil
}

func (g *generator) clearCache(v *Variable) {
	if cache := v.ListCoercion(); cache != "" {
		g.src.line("%s = %s;", cache, nullLiteral)
	}
}

// finish closes the unit: it rejects open blocks and prepends the
// declarations of every external, global, and cache variable.
func (g *generator) finish() (*Output, error) {
	if n := len(g.blocks); n > 0 {
		return nil, ErrUnbalanced.With(
			slog.String("reason", "block not closed"),
			slog.String("block", g.blocks[n-1].String()),
		)
	}

	var decls []string

	for _, v := range g.syms.All() {
		switch v.Scope {
		case ScopeExternal:
			from := bindingsMap
			if v.Parameter {
				from = argumentsMap
			}

			decls = append(decls, fmt.Sprintf("%s %s = %s.%s(%s);",
				v.Type.TargetName(), v.AssignedName, from, mapGet,
				quoteText(v.OriginalName)))

		case ScopeGlobal:
			decls = append(decls, fmt.Sprintf("%s %s = %s;",
				v.Type.TargetName(), v.AssignedName, v.Type.DefaultValue()))
		}

		if cache := v.ListCoercion(); cache != "" {
			decls = append(decls, fmt.Sprintf("%s %s = %s;",
				collectionType, cache, nullLiteral))
		}
	}

	g.src.prepend(decls...)
	g.out.Source = g.src.String()

	g.logger.Debug("unit finished",
		slog.Int("variables", len(g.syms.All())),
		slog.Int("sub_units", len(g.out.order)),
	)

	return g.out, nil
}
