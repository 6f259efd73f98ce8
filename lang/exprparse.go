package lang

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Function names that map onto operators instead of runtime calls.
var functionOperators = map[string]UnaryOperator{
	"len":          OpLength,
	"isWhitespace": OpIsWhitespace,
}

var functionBinaryOperators = map[string]BinaryOperator{
	"concat": OpConcat,
	"intdiv": OpIntDiv,
}

var infixOperators = map[string]BinaryOperator{
	"and": OpAnd,
	"&&":  OpAnd,
	"or":  OpOr,
	"||":  OpOr,
	"==":  OpEq,
	"!=":  OpNeq,
	"<":   OpLt,
	"<=":  OpLeq,
	">":   OpGt,
	">=":  OpGeq,
	"+":   OpAdd,
	"-":   OpSub,
	"*":   OpMul,
	"/":   OpDiv,
	"%":   OpRem,
	"in":  OpIn,
}

// ParseExpr parses expression text into an expression tree.
//
// The text follows expr-lang syntax. Member access, indexing, arithmetic,
// comparison, logic, membership, conditionals, list and map literals are
// supported. The functions len, isWhitespace, concat and intdiv map onto
// operators; calls of any other plain name become runtime calls.
func ParseExpr(text string) (Expr, error) {
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, ErrExprParse.Wrap(err).With(slog.String("expr", text))
	}

	e, err := convertNode(tree.Node)
	if err != nil {
		return nil, WrapError(err).With(slog.String("expr", text))
	}

	return e, nil
}

// MustParseExpr is like [ParseExpr] but panics on error.
func MustParseExpr(text string) Expr {
	e, err := ParseExpr(text)
	if err != nil {
		panic(err)
	}

	return e
}

func unsupportedNode(n ast.Node, detail string) error {
	return ErrUnsupportedExpression.With(
		slog.String("node", fmt.Sprintf("%T", n)),
		slog.String("detail", detail),
	)
}

func convertNode(n ast.Node) (Expr, error) {
	switch n := n.(type) {
	case *ast.IdentifierNode:
		return NewIdentifier(n.Value), nil

	case *ast.StringNode:
		return NewString(n.Value), nil

	case *ast.IntegerNode:
		return NewInteger(int64(n.Value)), nil

	case *ast.FloatNode:
		return NewFloat(n.Value), nil

	case *ast.BoolNode:
		return NewBoolean(n.Value), nil

	case *ast.NilNode:
		return NewNull(), nil

	case *ast.UnaryNode:
		return convertUnary(n)

	case *ast.BinaryNode:
		op, ok := infixOperators[n.Operator]
		if !ok {
			return nil, unsupportedNode(n, n.Operator)
		}

		l, err := convertNode(n.Left)
		if err != nil {
			return nil, err
		}

		r, err := convertNode(n.Right)
		if err != nil {
			return nil, err
		}

		return NewBinary(op, l, r), nil

	case *ast.ConditionalNode:
		c, err := convertNode(n.Cond)
		if err != nil {
			return nil, err
		}

		a, err := convertNode(n.Exp1)
		if err != nil {
			return nil, err
		}

		b, err := convertNode(n.Exp2)
		if err != nil {
			return nil, err
		}

		return NewTernary(c, a, b), nil

	case *ast.MemberNode:
		if n.Optional || n.Method {
			return nil, unsupportedNode(n, "optional or method access")
		}

		target, err := convertNode(n.Node)
		if err != nil {
			return nil, err
		}

		prop, err := convertNode(n.Property)
		if err != nil {
			return nil, err
		}

		return NewProperty(target, prop), nil

	case *ast.BuiltinNode:
		return convertCall(n, n.Name, n.Arguments)

	case *ast.CallNode:
		id, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, unsupportedNode(n, "call of a non-name")
		}

		return convertCall(n, id.Value, n.Arguments)

	case *ast.ArrayNode:
		items, err := convertNodes(n.Nodes)
		if err != nil {
			return nil, err
		}

		return NewArray(items...), nil

	case *ast.MapNode:
		return convertMap(n)

	default:
		return nil, unsupportedNode(n, "")
	}
}

func convertNodes(nodes []ast.Node) ([]Expr, error) {
	out := make([]Expr, 0, len(nodes))

	for _, n := range nodes {
		e, err := convertNode(n)
		if err != nil {
			return nil, err
		}

		out = append(out, e)
	}

	return out, nil
}

func convertUnary(n *ast.UnaryNode) (Expr, error) {
	x, err := convertNode(n.Node)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "not", "!":
		return NewUnary(OpNot, x), nil
	case "-":
		if num, ok := x.(*NumberLit); ok {
			if num.IsFloat {
				return NewFloat(-num.Float), nil
			}

			return NewInteger(-num.Int), nil
		}

		return NewUnary(OpNeg, x), nil
	case "+":
		return x, nil
	default:
		return nil, unsupportedNode(n, n.Operator)
	}
}

func convertCall(n ast.Node, name string, args []ast.Node) (Expr, error) {
	exprs, err := convertNodes(args)
	if err != nil {
		return nil, err
	}

	if op, ok := functionOperators[name]; ok {
		if len(exprs) != 1 {
			return nil, unsupportedNode(n, name+" takes one argument")
		}

		return NewUnary(op, exprs[0]), nil
	}

	if op, ok := functionBinaryOperators[name]; ok {
		if len(exprs) != 2 {
			return nil, unsupportedNode(n, name+" takes two arguments")
		}

		return NewBinary(op, exprs[0], exprs[1]), nil
	}

	if _, ok := n.(*ast.BuiltinNode); ok {
		return nil, unsupportedNode(n, name)
	}

	return NewCall(name, exprs...), nil
}

func convertMap(n *ast.MapNode) (Expr, error) {
	entries := make([]MapEntry, 0, len(n.Pairs))

	for _, p := range n.Pairs {
		pair, ok := p.(*ast.PairNode)
		if !ok {
			return nil, unsupportedNode(p, "map entry")
		}

		var key string

		switch k := pair.Key.(type) {
		case *ast.StringNode:
			key = k.Value
		case *ast.IdentifierNode:
			key = k.Value
		case *ast.IntegerNode:
			key = fmt.Sprint(k.Value)
		default:
			return nil, unsupportedNode(pair.Key, "map key")
		}

		v, err := convertNode(pair.Value)
		if err != nil {
			return nil, err
		}

		entries = append(entries, MapEntry{Key: key, Value: v})
	}

	return NewMap(entries...), nil
}
