package lang

import (
	"fmt"
	"log/slog"
)

// TypeInfo maps each node of an expression tree to its inferred type.
//
// Keys are node identities, so two equal subtrees at different positions
// have separate entries.
type TypeInfo map[Expr]Type

// TypeOf returns the inferred type of e, or TypeUnknown if e was not visited.
func (ti TypeInfo) TypeOf(e Expr) Type {
	if t, ok := ti[e]; ok {
		return t
	}

	return TypeUnknown
}

// InferTypes assigns a type to root and every node below it.
//
// Identifiers take the type of the variable they resolve to. Names that
// resolve to nothing are bound externally in syms as a side effect.
func InferTypes(root Expr, syms *Symbols) (TypeInfo, error) {
	ti := make(TypeInfo)

	if _, err := ti.infer(root, syms); err != nil {
		return nil, err
	}

	return ti, nil
}

func (ti TypeInfo) infer(e Expr, syms *Symbols) (Type, error) {
	if t, ok := ti[e]; ok {
		return t, nil
	}

	t, err := ti.inferNode(e, syms)
	if err != nil {
		return TypeUnknown, err
	}

	ti[e] = t

	return t, nil
}

func (ti TypeInfo) inferNode(e Expr, syms *Symbols) (Type, error) {
	switch n := e.(type) {
	case *Identifier:
		v, err := syms.ResolveOrBindExternally(n.Name)
		if err != nil {
			return TypeUnknown, err
		}

		return v.Type, nil

	case *StringLit:
		return TypeText, nil

	case *NumberLit:
		if n.IsIntegral() {
			return TypeInteger, nil
		}

		return TypeFloat, nil

	case *BooleanLit:
		return TypeBoolean, nil

	case *NullLit:
		return TypeUnknown, nil

	case *BinaryOp:
		rule, err := lookupBinary(n.Op)
		if err != nil {
			return TypeUnknown, err
		}

		l, err := ti.infer(n.Left, syms)
		if err != nil {
			return TypeUnknown, err
		}

		r, err := ti.infer(n.Right, syms)
		if err != nil {
			return TypeUnknown, err
		}

		return rule.result(l, r), nil

	case *UnaryOp:
		rule, err := lookupUnary(n.Op)
		if err != nil {
			return TypeUnknown, err
		}

		t, err := ti.infer(n.Operand, syms)
		if err != nil {
			return TypeUnknown, err
		}

		return rule.result(t), nil

	case *Ternary:
		if _, err := ti.infer(n.Cond, syms); err != nil {
			return TypeUnknown, err
		}

		then, err := ti.infer(n.Then, syms)
		if err != nil {
			return TypeUnknown, err
		}

		els, err := ti.infer(n.Else, syms)
		if err != nil {
			return TypeUnknown, err
		}

		return sameOrUnknown(then, els), nil

	case *PropertyAccess:
		if _, err := ti.infer(n.Target, syms); err != nil {
			return TypeUnknown, err
		}

		if _, err := ti.infer(n.Property, syms); err != nil {
			return TypeUnknown, err
		}

		return TypeUnknown, nil

	case *RuntimeCall:
		if err := ti.inferAll(n.Args, syms); err != nil {
			return TypeUnknown, err
		}

		return TypeUnknown, nil

	case *MapLit:
		for _, entry := range n.Entries {
			if _, err := ti.infer(entry.Value, syms); err != nil {
				return TypeUnknown, err
			}
		}

		return TypeMap, nil

	case *ArrayLit:
		if err := ti.inferAll(n.Items, syms); err != nil {
			return TypeUnknown, err
		}

		return TypeUnknown, nil

	default:
		return TypeUnknown, ErrUnknownNode.With(
			slog.String("node", fmt.Sprintf("%T", e)),
		)
	}
}

func (ti TypeInfo) inferAll(exprs []Expr, syms *Symbols) error {
	for _, e := range exprs {
		if _, err := ti.infer(e, syms); err != nil {
			return err
		}
	}

	return nil
}
