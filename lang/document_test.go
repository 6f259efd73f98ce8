package lang

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

const listDocument = `name: page
parameters: [title]
bindings: [properties]
commands:
  - out: "<h1>"
  - out-var: title
  - let: {var: n, expr: "1+2"}
  - end: let
  - loop: {list: items}
  - end: loop
  - if: {var: show, not: true}
  - end: if
  - template: {name: row, params: [item]}
  - end: template
  - call: {template: row, args: rowArgs}
  - global: {var: g, expr: "'x'"}
`

func TestParseDocument_Decode(t *testing.T) {
	doc, err := ParseDocument(context.Background(), []byte(listDocument), "page.yaml")
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	if doc.Name != "page" {
		t.Errorf("Name = %q, want %q", doc.Name, "page")
	}

	if doc.Fingerprint() != Fingerprint([]byte(listDocument)) {
		t.Errorf("Fingerprint = %x, want content hash", doc.Fingerprint())
	}

	cmds, err := doc.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []string{
		`out "<h1>"`,
		"out-var title",
		"let n = 1 + 2",
		"end let",
		"loop item, itemIndex in items",
		"end loop",
		"if show == false",
		"end if",
		"template row(item)",
		"end template",
		"call row(rowArgs)",
		`global g = "x"`,
	}

	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(want))
	}

	for i, cmd := range cmds {
		if got := cmd.String(); got != want[i] {
			t.Errorf("command %d = %q, want %q", i, got, want[i])
		}
	}

	loop, ok := cmds[4].(*LoopStart)
	if !ok || loop.Item != DefaultItem || loop.Index != DefaultItem+"Index" {
		t.Errorf("loop defaults = %#v", cmds[4])
	}
}

func TestParseDocument_DefaultName(t *testing.T) {
	doc, err := ParseDocument(context.Background(),
		[]byte(`{"commands": [{"out": "a"}]}`), "templates/list.json")
	if err != nil {
		t.Fatal(err)
	}

	if doc.Name != "list" {
		t.Errorf("Name = %q, want %q", doc.Name, "list")
	}
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown field",
			doc:  "commands:\n  - out: a\nbogus: 1\n",
			want: ErrInvalidDocument,
		},
		{
			name: "unknown step field",
			doc:  "commands:\n  - print: a\n",
			want: ErrInvalidDocument,
		},
		{
			name: "malformed",
			doc:  "commands: [\n",
			want: ErrInvalidDocument,
		},
		{
			name: "two commands in one step",
			doc:  "commands:\n  - {out: a, end: let}\n",
			want: ErrInvalidDocument,
		},
		{
			name: "empty step",
			doc:  "commands:\n  - {}\n",
			want: ErrInvalidDocument,
		},
		{
			name: "unknown end marker",
			doc:  "commands:\n  - end: while\n",
			want: ErrInvalidDocument,
		},
		{
			name: "loop without list",
			doc:  "commands:\n  - loop: {item: x}\n",
			want: ErrInvalidDocument,
		},
		{
			name: "bad expression",
			doc:  "commands:\n  - let: {var: x, expr: \"1 +\"}\n",
			want: ErrExprParse,
		},
		{
			name: "unsupported expression",
			doc:  "commands:\n  - let: {var: x, expr: \"a ?? b\"}\n",
			want: ErrUnsupportedExpression,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument(context.Background(), []byte(tt.doc), "t.yaml")
			if err == nil {
				_, err = doc.Decode()
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadDocument(t *testing.T) {
	doc, err := ReadDocument(context.Background(), strings.NewReader(listDocument), "page.yaml")
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Commands) != 12 {
		t.Errorf("got %d steps, want 12", len(doc.Commands))
	}
}

func TestDocument_Compile(t *testing.T) {
	doc, err := ParseDocument(context.Background(), []byte(listDocument), "page.yaml")
	if err != nil {
		t.Fatal(err)
	}

	out, err := doc.Compile(context.Background())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if !strings.Contains(out.Source, `arguments.get("title")`) {
		t.Errorf("title not read from arguments:\n%s", out.Source)
	}

	if _, ok := out.SubUnit("row"); !ok {
		t.Error("sub-unit row missing")
	}
}

func TestDocument_CompileReportsShadowedBinding(t *testing.T) {
	doc := &Document{
		Name:     "page",
		Bindings: []string{"properties"},
		Commands: []Step{
			{Let: &Assign{Var: "properties", Expr: "1"}},
			{End: EndLet},
		},
	}

	out, err := doc.Compile(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Diagnostics) != 1 || out.Diagnostics[0].Variable != "properties" {
		t.Errorf("diagnostics = %v", out.Diagnostics)
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	cmds := []Command{
		&OutText{Text: "<ul>"},
		&LoopStart{List: "items", Item: "it", Index: "i"},
		&BindingStart{Variable: "label", Expr: MustParseExpr("it.name + ' #' + i")},
		&OutVariable{Variable: "label"},
		&BindingEnd{},
		&LoopEnd{},
		&ConditionalStart{Variable: "footer", Expected: true},
		&ProcedureCall{Template: "foot"},
		&ConditionalEnd{},
	}

	doc, err := NewDocument("list", []string{"title"}, nil, cmds)
	if err != nil {
		t.Fatal(err)
	}

	formats := map[string]func(*Document, context.Context, *bytes.Buffer) error{
		"yaml": func(d *Document, ctx context.Context, b *bytes.Buffer) error {
			return d.FormatYAML(ctx, b, 2)
		},
		"json": func(d *Document, ctx context.Context, b *bytes.Buffer) error {
			return d.FormatJSON(ctx, b, 2)
		},
		"compact json": func(d *Document, ctx context.Context, b *bytes.Buffer) error {
			return d.FormatJSON(ctx, b, 0)
		},
	}

	for name, format := range formats {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := format(doc, context.Background(), &buf); err != nil {
				t.Fatalf("format: %v", err)
			}

			back, err := ParseDocument(context.Background(), buf.Bytes(), "x")
			if err != nil {
				t.Fatalf("ParseDocument: %v\n%s", err, buf.String())
			}

			if back.Name != "list" || len(back.Parameters) != 1 {
				t.Errorf("header = %q %v", back.Name, back.Parameters)
			}

			got, err := back.Decode()
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if len(got) != len(cmds) {
				t.Fatalf("got %d commands, want %d", len(got), len(cmds))
			}

			for i := range cmds {
				if got[i].String() != cmds[i].String() {
					t.Errorf("command %d = %q, want %q", i, got[i], cmds[i])
				}
			}
		})
	}
}

func TestDocument_Canonical(t *testing.T) {
	doc, err := ParseDocument(context.Background(), []byte(listDocument), "page.yaml")
	if err != nil {
		t.Fatal(err)
	}

	canon, err := doc.Canonical()
	if err != nil {
		t.Fatal(err)
	}

	if got := canon.Commands[2].Let.Expr; got != "1 + 2" {
		t.Errorf("canonical expr = %q, want %q", got, "1 + 2")
	}

	if got := canon.Commands[10].Call.Args; got != "rowArgs" {
		t.Errorf("call args = %q", got)
	}

	if canon.Fingerprint() != doc.Fingerprint() {
		t.Error("Canonical dropped the fingerprint")
	}
}

func TestNewDocument_UnknownCommand(t *testing.T) {
	_, err := NewDocument("x", nil, nil, []Command{nil})
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("err = %v, want %v", err, ErrUnknownNode)
	}
}
