package lang

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var infixSymbols = map[BinaryOperator]string{
	OpAnd: "and",
	OpOr:  "or",
	OpEq:  "==",
	OpNeq: "!=",
	OpLt:  "<",
	OpLeq: "<=",
	OpGt:  ">",
	OpGeq: ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpRem: "%",
	OpIn:  "in",
}

// FormatExpr returns expression text that [ParseExpr] parses back into an
// equivalent tree. Nested operations are fully parenthesized.
func FormatExpr(e Expr) string {
	var b strings.Builder

	formatExpr(&b, e, false)

	return b.String()
}

func formatExpr(b *strings.Builder, e Expr, nested bool) {
	open := func() {
		if nested {
			b.WriteByte('(')
		}
	}
	closeParen := func() {
		if nested {
			b.WriteByte(')')
		}
	}

	switch n := e.(type) {
	case *Identifier:
		b.WriteString(n.Name)

	case *StringLit:
		b.WriteString(strconv.Quote(n.Value))

	case *NumberLit:
		b.WriteString(formatNumber(n))

	case *BooleanLit:
		b.WriteString(strconv.FormatBool(n.Value))

	case *NullLit:
		b.WriteString("nil")

	case *BinaryOp:
		if sym, ok := infixSymbols[n.Op]; ok {
			open()
			formatExpr(b, n.Left, true)
			b.WriteString(" " + sym + " ")
			formatExpr(b, n.Right, true)
			closeParen()

			return
		}

		formatCall(b, n.Op.String(), []Expr{n.Left, n.Right})

	case *UnaryOp:
		switch n.Op {
		case OpNot:
			open()
			b.WriteString("not ")
			formatExpr(b, n.Operand, true)
			closeParen()
		case OpNeg:
			open()
			b.WriteByte('-')
			formatExpr(b, n.Operand, true)
			closeParen()
		case OpLength:
			formatCall(b, "len", []Expr{n.Operand})
		default:
			formatCall(b, n.Op.String(), []Expr{n.Operand})
		}

	case *Ternary:
		open()
		formatExpr(b, n.Cond, true)
		b.WriteString(" ? ")
		formatExpr(b, n.Then, true)
		b.WriteString(" : ")
		formatExpr(b, n.Else, true)
		closeParen()

	case *PropertyAccess:
		formatExpr(b, n.Target, true)

		if s, ok := n.Property.(*StringLit); ok && isSimpleName(s.Value) {
			b.WriteString("." + s.Value)

			return
		}

		b.WriteByte('[')
		formatExpr(b, n.Property, false)
		b.WriteByte(']')

	case *RuntimeCall:
		formatCall(b, n.Name, n.Args)

	case *MapLit:
		b.WriteByte('{')

		for i, entry := range n.Entries {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(strconv.Quote(entry.Key) + ": ")
			formatExpr(b, entry.Value, false)
		}

		b.WriteByte('}')

	case *ArrayLit:
		b.WriteByte('[')

		for i, item := range n.Items {
			if i > 0 {
				b.WriteString(", ")
			}

			formatExpr(b, item, false)
		}

		b.WriteByte(']')

	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func formatCall(b *strings.Builder, name string, args []Expr) {
	b.WriteString(name + "(")

	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}

		formatExpr(b, arg, false)
	}

	b.WriteByte(')')
}

func formatNumber(n *NumberLit) string {
	if !n.IsFloat {
		return strconv.FormatInt(n.Int, 10)
	}

	if math.IsInf(n.Float, 0) || math.IsNaN(n.Float) {
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}

	s := strconv.FormatFloat(n.Float, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

// isSimpleName reports whether s can follow a dot in member access.
func isSimpleName(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return !isKeyword(s)
}

func isKeyword(s string) bool {
	switch s {
	case "and", "or", "not", "in", "matches", "contains", "startsWith",
		"endsWith", "let", "if", "else", "nil", "true", "false":
		return true
	default:
		return false
	}
}

// FormatYAML writes the document as YAML to the writer.
func (d *Document) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	}

	data, err := yaml.MarshalContext(ctx, d, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// FormatJSON writes the document as JSON to the writer.
func (d *Document) FormatJSON(ctx context.Context, w io.Writer, indent int) error {
	opts := []yaml.EncodeOption{yaml.JSON()}
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, d, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
