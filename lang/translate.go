package lang

import (
	"fmt"
	"log/slog"
	"strings"
)

// translator emits target source for expressions whose types were inferred
// against the same symbol table.
type translator struct {
	syms *Symbols
	info TypeInfo
}

// Translate returns target source that evaluates e.
//
// The inferred types in info decide between native operations and calls into
// the object model. Identifiers are resolved in syms, which may allocate
// collection caches for them.
func Translate(e Expr, info TypeInfo, syms *Symbols) (string, error) {
	tr := &translator{syms: syms, info: info}

	return tr.translate(e)
}

// TranslateTyped infers the types of e and translates it in one step.
func TranslateTyped(e Expr, syms *Symbols) (string, Type, error) {
	info, err := InferTypes(e, syms)
	if err != nil {
		return "", TypeUnknown, err
	}

	src, err := Translate(e, info, syms)
	if err != nil {
		return "", TypeUnknown, err
	}

	return src, info.TypeOf(e), nil
}

func (tr *translator) operand(e Expr) (operand, error) {
	src, err := tr.translate(e)
	if err != nil {
		return operand{}, err
	}

	return operand{expr: e, src: src, typ: tr.info.TypeOf(e)}, nil
}

func (tr *translator) translate(e Expr) (string, error) {
	switch n := e.(type) {
	case *Identifier:
		return tr.syms.AssignedName(n.Name)

	case *StringLit:
		return quoteText(n.Value), nil

	case *NumberLit:
		return numberLiteral(n), nil

	case *BooleanLit:
		if n.Value {
			return "true", nil
		}

		return "false", nil

	case *NullLit:
		return nullLiteral, nil

	case *BinaryOp:
		rule, err := lookupBinary(n.Op)
		if err != nil {
			return "", err
		}

		l, err := tr.operand(n.Left)
		if err != nil {
			return "", err
		}

		r, err := tr.operand(n.Right)
		if err != nil {
			return "", err
		}

		return rule.emit(tr, n.Op, l, r)

	case *UnaryOp:
		rule, err := lookupUnary(n.Op)
		if err != nil {
			return "", err
		}

		x, err := tr.operand(n.Operand)
		if err != nil {
			return "", err
		}

		return rule.emit(tr, n.Op, x)

	case *Ternary:
		return tr.ternary(n)

	case *PropertyAccess:
		return tr.property(n)

	case *RuntimeCall:
		args, err := tr.list(n.Args)
		if err != nil {
			return "", err
		}

		return runtimeCall + "(" + strings.Join(
			append([]string{quoteText(n.Name)}, args...), ", ",
		) + ")", nil

	case *MapLit:
		var b strings.Builder

		b.WriteString(mapBuilder + "()")

		for _, entry := range n.Entries {
			v, err := tr.translate(entry.Value)
			if err != nil {
				return "", err
			}

			fmt.Fprintf(&b, ".%s(%s, %s)", mapWith, quoteText(entry.Key), v)
		}

		return b.String(), nil

	case *ArrayLit:
		items, err := tr.list(n.Items)
		if err != nil {
			return "", err
		}

		return "new Object[] {" + strings.Join(items, ", ") + "}", nil

	default:
		return "", ErrUnknownNode.With(
			slog.String("node", fmt.Sprintf("%T", e)),
		)
	}
}

func (tr *translator) ternary(n *Ternary) (string, error) {
	c, err := tr.operand(n.Cond)
	if err != nil {
		return "", err
	}

	cond, err := tr.coerce(c, TypeBoolean)
	if err != nil {
		return "", err
	}

	then, err := tr.translate(n.Then)
	if err != nil {
		return "", err
	}

	els, err := tr.translate(n.Else)
	if err != nil {
		return "", err
	}

	return "(" + cond + " ? " + then + " : " + els + ")", nil
}

func (tr *translator) property(n *PropertyAccess) (string, error) {
	target, err := tr.translate(n.Target)
	if err != nil {
		return "", err
	}

	prop, err := tr.translate(n.Property)
	if err != nil {
		return "", err
	}

	if tr.info.TypeOf(n.Target) == TypeMap {
		if _, ok := n.Target.(*Identifier); !ok {
			target = "(" + target + ")"
		}

		return target + "." + mapGet + "(" + prop + ")", nil
	}

	return resolveProperty + "(" + target + ", " + prop + ")", nil
}

func (tr *translator) list(exprs []Expr) ([]string, error) {
	out := make([]string, 0, len(exprs))

	for _, e := range exprs {
		s, err := tr.translate(e)
		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, nil
}
