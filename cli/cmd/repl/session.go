package repl

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ardnew/htlc/lang"
)

// functions are the call names the expression language maps onto operators.
var functions = []string{"concat", "intdiv", "isWhitespace", "len"}

// keywords are the reserved words of the expression language.
var keywords = []string{"and", "false", "in", "nil", "not", "or", "true"}

// session is the translation state of one REPL run: a symbol table for a unit
// with the configured parameters, shared by every evaluated line so that
// external bindings and declared locals accumulate.
type session struct {
	params []string
	syms   *lang.Symbols
}

func newSession(params []string) *session {
	return &session{
		params: params,
		syms:   lang.NewSymbols(params...),
	}
}

// eval translates the expression text and returns its inferred type and
// the generated source.
func (s *session) eval(text string) (lang.Type, string, error) {
	e, err := lang.ParseExpr(text)
	if err != nil {
		return lang.TypeUnknown, "", err
	}

	src, typ, err := lang.TranslateTyped(e, s.syms)
	if err != nil {
		return lang.TypeUnknown, "", err
	}

	return typ, src, nil
}

// let declares a local variable holding the value of the expression text,
// typed by inference, and returns its declaration.
func (s *session) let(name, text string) (string, error) {
	typ, src, err := s.eval(text)
	if err != nil {
		return "", err
	}

	v, err := s.syms.DeclareVariable(name, typ)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s = %s;", v.Type.TargetName(), v.AssignedName, src), nil
}

// end closes the innermost local variable and returns its template name.
func (s *session) end() (string, error) {
	v, err := s.syms.EndVariable()
	if err != nil {
		return "", err
	}

	return v.OriginalName, nil
}

// reset discards every variable.
func (s *session) reset() {
	s.syms = lang.NewSymbols(s.params...)
}

// vars renders a table of the variables created so far.
func (s *session) vars() string {
	all := s.syms.All()
	if len(all) == 0 {
		return "  (no variables)\n"
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return hintStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("NAME", "SCOPE", "TYPE", "SOURCE")

	for _, v := range all {
		t.Row(v.OriginalName, v.Scope.String(), v.Type.String(), v.AssignedName)
	}

	return t.String() + "\n"
}

// candidates returns the completion candidates for expression input:
// resolvable names, parameters, functions and keywords, without duplicates.
func (s *session) candidates() []string {
	names := s.syms.Names()

	for _, group := range [][]string{s.params, functions, keywords} {
		for _, name := range group {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	return names
}

// isFunction reports whether name is a call name of the expression language.
func isFunction(name string) bool {
	return slices.Contains(functions, name)
}

// parseLet splits the arguments of the let command, "name = expr".
func parseLet(args string) (name, expr string, ok bool) {
	name, expr, ok = strings.Cut(args, "=")
	name, expr = strings.TrimSpace(name), strings.TrimSpace(expr)

	if !ok || name == "" || expr == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}

	return name, expr, true
}
