package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/htlc/lang"
	"github.com/ardnew/htlc/pkg"
)

const letDocument = `name: greet
commands:
  - let: {var: msg, expr: "'hi' + name"}
  - if: {var: show}
  - out-var: msg
  - end: if
  - end: let
`

func TestFmtYAML(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "greet.yaml", letDocument)

	var buf bytes.Buffer

	y := &YAML{Indent: 2, Source: path, w: &buf}
	if err := y.Run(context.Background()); err != nil {
		t.Fatalf("YAML.Run() error = %v", err)
	}

	for _, want := range []string{"name: greet", `"hi" + name`, "end: let"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, buf.String())
		}
	}

	back, err := lang.ParseDocument(context.Background(), buf.Bytes(), "back.yaml")
	if err != nil {
		t.Fatalf("formatted output does not parse: %v", err)
	}

	if len(back.Commands) != 5 {
		t.Errorf("got %d commands, want 5", len(back.Commands))
	}
}

func TestFmtJSON(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "greet.yaml", letDocument)

	tests := []struct {
		name   string
		indent int
		lines  int
	}{
		{"indented", 2, 2},
		{"compact", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			j := &JSON{Indent: tt.indent, Source: path, w: &buf}
			if err := j.Run(context.Background()); err != nil {
				t.Fatalf("JSON.Run() error = %v", err)
			}

			out := strings.TrimSpace(buf.String())
			if !strings.HasPrefix(out, "{") || !strings.HasSuffix(out, "}") {
				t.Errorf("output is not a JSON object:\n%s", out)
			}

			if n := strings.Count(out, "\n") + 1; n < tt.lines {
				t.Errorf("got %d lines, want at least %d", n, tt.lines)
			}

			if tt.indent == 0 && strings.Contains(out, "\n") {
				t.Errorf("compact output spans lines:\n%s", out)
			}
		})
	}
}

func TestFmtCommands(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "greet.yaml", letDocument)

	var buf bytes.Buffer

	c := &Commands{Source: path, w: &buf}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Commands.Run() error = %v", err)
	}

	want := strings.Join([]string{
		`let msg = "hi" + name`,
		`  if show == true`,
		`    out-var msg`,
		`  end if`,
		`end let`,
	}, "\n") + "\n"

	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFmtErrors(t *testing.T) {
	dir := t.TempDir()
	invalid := writeTemp(t, dir, "invalid.yaml", "commands:\n  - print: x\n")
	badExpr := writeTemp(t, dir, "expr.yaml", "commands:\n  - let: {var: x, expr: \"1 +\"}\n")

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "yaml invalid document",
			run:  (&YAML{Source: invalid, w: &bytes.Buffer{}}).runBackground,
			want: lang.ErrInvalidDocument,
		},
		{
			name: "json bad expression",
			run:  (&JSON{Source: badExpr, w: &bytes.Buffer{}}).runBackground,
			want: lang.ErrExprParse,
		},
		{
			name: "commands bad expression",
			run:  (&Commands{Source: badExpr, w: &bytes.Buffer{}}).runBackground,
			want: lang.ErrExprParse,
		},
		{
			name: "yaml negative indent",
			run:  (&YAML{Indent: -1, Source: badExpr, w: &bytes.Buffer{}}).runBackground,
			want: pkg.ErrInvalidFormat,
		},
		{
			name: "json negative indent",
			run:  (&JSON{Indent: -2, Source: badExpr, w: &bytes.Buffer{}}).runBackground,
			want: pkg.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func (y *YAML) runBackground() error     { return y.Run(context.Background()) }
func (j *JSON) runBackground() error     { return j.Run(context.Background()) }
func (c *Commands) runBackground() error { return c.Run(context.Background()) }
