package repl

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/htlc/lang"
)

func TestSession_Eval(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		typ  lang.Type
	}{
		{name: "integer", text: "42", want: "42", typ: lang.TypeInteger},
		{name: "arithmetic", text: "-(1 + 2)", want: "(-(1 + 2))", typ: lang.TypeInteger},
		{name: "mixed", text: "1 + 2.5", want: "(((double) 1) + 2.5)", typ: lang.TypeFloat},
		{name: "logical", text: "true && false", want: "(true && false)", typ: lang.TypeBoolean},
		{name: "text", text: "'hi'", want: `"hi"`, typ: lang.TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, src, err := newSession(nil).eval(tt.text)
			if err != nil {
				t.Fatalf("eval(%q): %v", tt.text, err)
			}

			if src != tt.want {
				t.Errorf("source = %s, want %s", src, tt.want)
			}

			if typ != tt.typ {
				t.Errorf("type = %v, want %v", typ, tt.typ)
			}
		})
	}
}

func TestSession_EvalParseError(t *testing.T) {
	_, _, err := newSession(nil).eval("1 +")
	if !errors.Is(err, lang.ErrExprParse) {
		t.Errorf("err = %v, want %v", err, lang.ErrExprParse)
	}
}

func TestSession_EvalBindsExternally(t *testing.T) {
	s := newSession([]string{"item"})

	typ, src, err := s.eval("item")
	if err != nil {
		t.Fatal(err)
	}

	if typ != lang.TypeUnknown {
		t.Errorf("type = %v, want %v", typ, lang.TypeUnknown)
	}

	if !strings.HasPrefix(src, "_dynamic_item") {
		t.Errorf("source = %s, want an external variable", src)
	}

	all := s.syms.All()
	if len(all) != 1 || !all[0].Parameter {
		t.Errorf("variables = %v, want one parameter", all)
	}
}

func TestSession_LetAndEnd(t *testing.T) {
	s := newSession(nil)

	decl, err := s.let("n", "1 + 2")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(decl, "long var_n") || !strings.HasSuffix(decl, " = (1 + 2);") {
		t.Errorf("declaration = %q", decl)
	}

	typ, src, err := s.eval("n")
	if err != nil {
		t.Fatal(err)
	}

	if typ != lang.TypeInteger || !strings.HasPrefix(src, "var_n") {
		t.Errorf("eval(n) = %v %s, want the local variable", typ, src)
	}

	name, err := s.end()
	if err != nil {
		t.Fatal(err)
	}

	if name != "n" {
		t.Errorf("ended %q, want n", name)
	}

	if _, err := s.end(); !errors.Is(err, lang.ErrUnbalanced) {
		t.Errorf("second end: err = %v, want %v", err, lang.ErrUnbalanced)
	}
}

func TestSession_Reset(t *testing.T) {
	s := newSession([]string{"p"})

	if _, err := s.let("n", "1"); err != nil {
		t.Fatal(err)
	}

	s.reset()

	if n := len(s.syms.All()); n != 0 {
		t.Errorf("%d variables after reset, want 0", n)
	}

	if !s.syms.IsParameter("p") {
		t.Error("reset dropped the parameters")
	}

	if got := s.vars(); got != "  (no variables)\n" {
		t.Errorf("vars() = %q", got)
	}
}

func TestSession_Vars(t *testing.T) {
	s := newSession(nil)

	if _, err := s.let("total", "0"); err != nil {
		t.Fatal(err)
	}

	got := s.vars()

	for _, want := range []string{"NAME", "SCOPE", "TYPE", "SOURCE", "total", "Local", "Integer", "var_total"} {
		if !strings.Contains(got, want) {
			t.Errorf("vars() lacks %q:\n%s", want, got)
		}
	}
}

func TestSession_Candidates(t *testing.T) {
	s := newSession([]string{"item", "len"})

	if _, err := s.let("item", "1"); err != nil {
		t.Fatal(err)
	}

	got := s.candidates()

	if got[0] != "item" {
		t.Errorf("candidates()[0] = %q, want the innermost variable", got[0])
	}

	for _, name := range []string{"item", "len"} {
		if n := countOf(got, name); n != 1 {
			t.Errorf("%q appears %d times", name, n)
		}
	}

	for _, want := range []string{"concat", "intdiv", "isWhitespace", "not", "in"} {
		if !slices.Contains(got, want) {
			t.Errorf("candidates lack %q", want)
		}
	}
}

func countOf(names []string, name string) (n int) {
	for _, s := range names {
		if s == name {
			n++
		}
	}

	return n
}

func TestParseLet(t *testing.T) {
	tests := []struct {
		args string
		name string
		expr string
		ok   bool
	}{
		{args: "x = 1", name: "x", expr: "1", ok: true},
		{args: "x=a == b", name: "x", expr: "a == b", ok: true},
		{args: "  y =  'a'  ", name: "y", expr: "'a'", ok: true},
		{args: "x", ok: false},
		{args: "= 1", ok: false},
		{args: "x =", ok: false},
		{args: "a b = 1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			name, expr, ok := parseLet(tt.args)
			if name != tt.name || expr != tt.expr || ok != tt.ok {
				t.Errorf("parseLet(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.args, name, expr, ok, tt.name, tt.expr, tt.ok)
			}
		})
	}
}
