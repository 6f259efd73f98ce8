package lang

import (
	"errors"
	"testing"
)

func TestParseExpr_Format(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a", want: "a"},
		{in: "'single'", want: `"single"`},
		{in: "42", want: "42"},
		{in: "2.5", want: "2.5"},
		{in: "-3", want: "-3"},
		{in: "+3", want: "3"},
		{in: "-x", want: "-x"},
		{in: "true", want: "true"},
		{in: "nil", want: "nil"},
		{in: "a + 1", want: "a + 1"},
		{in: "a && b", want: "a and b"},
		{in: "a and b or c", want: "(a and b) or c"},
		{in: "a % 2 == 0", want: "(a % 2) == 0"},
		{in: "!a", want: "not a"},
		{in: "not a", want: "not a"},
		{in: "a not in b", want: "not (a in b)"},
		{in: "a in [1, 2]", want: "a in [1, 2]"},
		{in: "a.b.c", want: "a.b.c"},
		{in: `a["b c"]`, want: `a["b c"]`},
		{in: "a[0]", want: "a[0]"},
		{in: "a[key]", want: "a[key]"},
		{in: "x ? 1 : 2.5", want: "x ? 1 : 2.5"},
		{in: "x ? (y ? 1 : 2) : 3", want: "x ? (y ? 1 : 2) : 3"},
		{in: `{"k": v, n: 1}`, want: `{"k": v, "n": 1}`},
		{in: "[1, 'two']", want: `[1, "two"]`},
		{in: "len(items)", want: "len(items)"},
		{in: "isWhitespace(s)", want: "isWhitespace(s)"},
		{in: "concat(a, b)", want: "concat(a, b)"},
		{in: "intdiv(a, 2)", want: "intdiv(a, 2)"},
		{in: "format('x', y)", want: `format("x", y)`},
		{in: "a * -x", want: "a * (-x)"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e, err := ParseExpr(tt.in)
			if err != nil {
				t.Fatalf("ParseExpr: %v", err)
			}

			got := FormatExpr(e)
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}

			again, err := ParseExpr(got)
			if err != nil {
				t.Fatalf("reparse %q: %v", got, err)
			}

			if FormatExpr(again) != got {
				t.Errorf("format not stable: %s -> %s", got, FormatExpr(again))
			}
		})
	}
}

func TestParseExpr_Trees(t *testing.T) {
	e := MustParseExpr("a.b + 1")

	sum, ok := e.(*BinaryOp)
	if !ok || sum.Op != OpAdd {
		t.Fatalf("got %T, want add", e)
	}

	prop, ok := sum.Left.(*PropertyAccess)
	if !ok {
		t.Fatalf("left is %T, want property access", sum.Left)
	}

	if s, ok := prop.Property.(*StringLit); !ok || s.Value != "b" {
		t.Errorf("property = %#v, want string b", prop.Property)
	}

	if n, ok := sum.Right.(*NumberLit); !ok || n.IsFloat || n.Int != 1 {
		t.Errorf("right = %#v, want integer 1", sum.Right)
	}

	call, ok := MustParseExpr("f(1, 2)").(*RuntimeCall)
	if !ok || call.Name != "f" || len(call.Args) != 2 {
		t.Errorf("got %#v, want runtime call f with two arguments", call)
	}

	ws, ok := MustParseExpr("isWhitespace(s)").(*UnaryOp)
	if !ok || ws.Op != OpIsWhitespace {
		t.Errorf("got %#v, want isWhitespace operator", ws)
	}
}

func TestParseExpr_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{in: "a +", want: ErrExprParse},
		{in: "(a", want: ErrExprParse},
		{in: "a ?? b", want: ErrUnsupportedExpression},
		{in: "a ** 2", want: ErrUnsupportedExpression},
		{in: "upper(a)", want: ErrUnsupportedExpression},
		{in: "a.b()", want: ErrUnsupportedExpression},
		{in: "a?.b", want: ErrUnsupportedExpression},
		{in: "len(a, b)", want: ErrUnsupportedExpression},
		{in: "a[1:2]", want: ErrUnsupportedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseExpr(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMustParseExpr_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParseExpr did not panic")
		}
	}()

	MustParseExpr("a +")
}

func TestFormatExpr_Constructed(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "keyword property",
			expr: NewProperty(NewIdentifier("a"), NewString("in")),
			want: `a["in"]`,
		},
		{
			name: "integral float",
			expr: NewFloat(3),
			want: "3.0",
		},
		{
			name: "escaped string",
			expr: NewString("a\"b\n"),
			want: `"a\"b\n"`,
		},
		{
			name: "nested unary",
			expr: NewBinary(OpAnd, NewUnary(OpNot, NewIdentifier("a")), NewIdentifier("b")),
			want: "(not a) and b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatExpr(tt.expr); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
