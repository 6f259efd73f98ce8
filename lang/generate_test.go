package lang

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
)

func compileCommands(t *testing.T, cmds []Command, opts ...Option) *Output {
	t.Helper()

	out, err := Compile(context.Background(), "main", cmds, opts...)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	return out
}

func TestCompile_Source(t *testing.T) {
	tests := []struct {
		name string
		cmds []Command
		opts []Option
		want string
	}{
		{
			name: "empty",
			cmds: nil,
			want: "",
		},
		{
			name: "text in order",
			cmds: []Command{&OutText{Text: "a"}, &OutText{Text: "b"}},
			want: "out.write(\"a\");\n" +
				"out.write(\"b\");\n",
		},
		{
			name: "local binding",
			cmds: []Command{
				&BindingStart{Variable: "x", Expr: NewInteger(1)},
				&OutVariable{Variable: "x"},
				&BindingEnd{},
			},
			want: "{\n" +
				"    long var_x_0 = 1;\n" +
				"    out.write(renderContext.getObjectModel().toString(var_x_0));\n" +
				"}\n",
		},
		{
			name: "text binding needs no conversion",
			cmds: []Command{
				&BindingStart{Variable: "s", Expr: NewString("hi")},
				&OutVariable{Variable: "s"},
				&BindingEnd{},
			},
			want: "{\n" +
				"    String var_s_0 = \"hi\";\n" +
				"    out.write(var_s_0);\n" +
				"}\n",
		},
		{
			name: "conditional",
			cmds: []Command{
				&ConditionalStart{Variable: "flag", Expected: true},
				&OutText{Text: "y"},
				&ConditionalEnd{},
			},
			want: "Object _dynamic_flag_0 = bindings.get(\"flag\");\n" +
				"if (renderContext.getObjectModel().toBoolean(_dynamic_flag_0)) {\n" +
				"    out.write(\"y\");\n" +
				"}\n",
		},
		{
			name: "negated conditional on boolean",
			cmds: []Command{
				&BindingStart{Variable: "b", Expr: NewBoolean(true)},
				&ConditionalStart{Variable: "b", Expected: false},
				&ConditionalEnd{},
				&BindingEnd{},
			},
			want: "{\n" +
				"    boolean var_b_0 = true;\n" +
				"    if (!var_b_0) {\n" +
				"    }\n" +
				"}\n",
		},
		{
			name: "parameter",
			cmds: []Command{&OutVariable{Variable: "title"}},
			opts: []Option{WithParameters("title")},
			want: "Object _dynamic_title_0 = arguments.get(\"title\");\n" +
				"out.write(renderContext.getObjectModel().toString(_dynamic_title_0));\n",
		},
		{
			name: "loop",
			cmds: []Command{
				&LoopStart{List: "items", Item: "item", Index: "itemIndex"},
				&OutVariable{Variable: "item"},
				&LoopEnd{},
			},
			want: "Object _dynamic_items_0 = bindings.get(\"items\");\n" +
				"Collection<Object> var_collection_items_1 = null;\n" +
				"if (var_collection_items_1 == null) {\n" +
				"    var_collection_items_1 = renderContext.getObjectModel().toCollection(_dynamic_items_0);\n" +
				"}\n" +
				"{\n" +
				"    long var_itemIndex_2 = 0;\n" +
				"    for (Object var_item_3 : var_collection_items_1) {\n" +
				"        out.write(renderContext.getObjectModel().toString(var_item_3));\n" +
				"        var_itemIndex_2++;\n" +
				"    }\n" +
				"}\n",
		},
		{
			name: "global reassigned with mixed types",
			cmds: []Command{
				&GlobalBinding{Variable: "g", Expr: NewInteger(1)},
				&GlobalBinding{Variable: "g", Expr: NewFloat(2.5)},
				&GlobalBinding{Variable: "g", Expr: NewString("hello")},
				&GlobalBinding{Variable: "g", Expr: NewBoolean(true)},
				&GlobalBinding{Variable: "g", Expr: NewMap()},
				&GlobalBinding{Variable: "g", Expr: NewInteger(3)},
				&OutVariable{Variable: "g"},
			},
			want: "Object _global_g_0 = null;\n" +
				"_global_g_0 = 1;\n" +
				"_global_g_0 = 2.5;\n" +
				"_global_g_0 = \"hello\";\n" +
				"_global_g_0 = true;\n" +
				"_global_g_0 = obj();\n" +
				"_global_g_0 = 3;\n" +
				"out.write(renderContext.getObjectModel().toString(_global_g_0));\n",
		},
		{
			name: "global assigned inside a branch starts null",
			cmds: []Command{
				&ConditionalStart{Variable: "c", Expected: true},
				&GlobalBinding{Variable: "g", Expr: NewInteger(1)},
				&ConditionalEnd{},
				&OutVariable{Variable: "g"},
			},
			want: "Object _dynamic_c_0 = bindings.get(\"c\");\n" +
				"Object _global_g_1 = null;\n" +
				"if (renderContext.getObjectModel().toBoolean(_dynamic_c_0)) {\n" +
				"    _global_g_1 = 1;\n" +
				"}\n" +
				"out.write(renderContext.getObjectModel().toString(_global_g_1));\n",
		},
		{
			name: "global assignment to a typed local converts",
			cmds: []Command{
				&BindingStart{Variable: "x", Expr: NewInteger(1)},
				&GlobalBinding{Variable: "x", Expr: NewFloat(2.5)},
				&BindingEnd{},
			},
			want: "{\n" +
				"    long var_x_0 = 1;\n" +
				"    var_x_0 = ((long) 2.5);\n" +
				"}\n",
		},
		{
			name: "template call",
			cmds: []Command{
				&ProcedureStart{Name: "row", Parameters: []string{"item"}},
				&OutVariable{Variable: "item"},
				&ProcedureEnd{},
				&ProcedureCall{Template: "row", Arguments: "args"},
			},
			want: "Object _template_row_0 = null;\n" +
				"Object _dynamic_args_2 = bindings.get(\"args\");\n" +
				"_template_row_0 = getProperty(\"row\");\n" +
				"callUnit(out, renderContext, _template_row_0, _dynamic_args_2);\n",
		},
		{
			name: "template call without arguments",
			cmds: []Command{
				&ProcedureStart{Name: "row"},
				&ProcedureEnd{},
				&ProcedureCall{Template: "row"},
			},
			want: "Object _template_row_0 = null;\n" +
				"_template_row_0 = getProperty(\"row\");\n" +
				"callUnit(out, renderContext, _template_row_0, obj());\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := compileCommands(t, tt.cmds, tt.opts...)

			if out.Source != tt.want {
				t.Errorf("source mismatch\ngot:\n%s\nwant:\n%s", out.Source, tt.want)
			}
		})
	}
}

func TestCompile_LocalDoesNotLeak(t *testing.T) {
	out := compileCommands(t, []Command{
		&BindingStart{Variable: "x", Expr: NewInteger(1)},
		&BindingEnd{},
		&OutVariable{Variable: "x"},
	})

	lines := strings.Split(strings.TrimSpace(out.Source), "\n")
	last := lines[len(lines)-1]

	if strings.Contains(last, "var_x_") {
		t.Errorf("ended local referenced after its block: %s", last)
	}

	if !strings.Contains(out.Source, `bindings.get("x")`) {
		t.Errorf("x not rebound externally:\n%s", out.Source)
	}
}

func TestCompile_NestedLoopsShareCache(t *testing.T) {
	out := compileCommands(t, []Command{
		&LoopStart{List: "items", Item: "a", Index: "ai"},
		&LoopStart{List: "items", Item: "b", Index: "bi"},
		&LoopEnd{},
		&LoopEnd{},
	})

	guards := regexp.MustCompile(`if \((\w+) == null\) \{`).FindAllStringSubmatch(out.Source, -1)
	if len(guards) != 2 {
		t.Fatalf("found %d cache guards, want 2:\n%s", len(guards), out.Source)
	}

	if guards[0][1] != guards[1][1] {
		t.Errorf("loops use different caches %q and %q", guards[0][1], guards[1][1])
	}

	if n := strings.Count(out.Source, collectionType+" "); n != 1 {
		t.Errorf("%d cache declarations, want 1:\n%s", n, out.Source)
	}
}

func TestCompile_SubTemplates(t *testing.T) {
	out := compileCommands(t, []Command{
		&OutText{Text: "main"},
		&ProcedureStart{Name: "a", Parameters: []string{"x"}},
		&OutVariable{Variable: "x"},
		&ProcedureEnd{},
		&ProcedureStart{Name: "b", Parameters: []string{"y"}},
		&OutVariable{Variable: "y"},
		&ProcedureEnd{},
	})

	if got := strings.Join(out.SubUnits(), ","); got != "a,b" {
		t.Fatalf("SubUnits() = %q, want %q", got, "a,b")
	}

	for name, param := range map[string]string{"a": "x", "b": "y"} {
		sub, ok := out.SubUnit(name)
		if !ok {
			t.Fatalf("sub-unit %q missing", name)
		}

		want := `arguments.get("` + param + `");`
		if !strings.Contains(sub.Source, want) {
			t.Errorf("sub-unit %q lacks %s:\n%s", name, want, sub.Source)
		}

		if strings.Contains(out.Source, want) {
			t.Errorf("root initializes parameter %q of %q", param, name)
		}
	}

	if strings.Contains(out.Source, "callUnit") {
		t.Errorf("root calls an uncalled template:\n%s", out.Source)
	}
}

func TestCompile_NestedSubTemplates(t *testing.T) {
	out := compileCommands(t, []Command{
		&ProcedureStart{Name: "outer"},
		&ProcedureStart{Name: "inner"},
		&OutText{Text: "in"},
		&ProcedureEnd{},
		&ProcedureCall{Template: "inner"},
		&ProcedureEnd{},
	})

	outer, ok := out.SubUnit("outer")
	if !ok {
		t.Fatal("outer missing")
	}

	if _, ok := out.SubUnit("inner"); ok {
		t.Error("inner attached to the root")
	}

	inner, ok := outer.SubUnit("inner")
	if !ok {
		t.Fatal("inner missing from outer")
	}

	if inner.Source != "out.write(\"in\");\n" {
		t.Errorf("inner source = %q", inner.Source)
	}

	var names []string
	for o := range out.All() {
		names = append(names, o.Name)
	}

	if got := strings.Join(names, ","); got != "main,outer,inner" {
		t.Errorf("All() = %q, want %q", got, "main,outer,inner")
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmds []Command
		want error
		attr string
	}{
		{
			name: "end without start",
			cmds: []Command{&ConditionalEnd{}},
			want: ErrUnbalanced,
			attr: "index=0",
		},
		{
			name: "mismatched end",
			cmds: []Command{
				&BindingStart{Variable: "x", Expr: NewInteger(1)},
				&LoopEnd{},
			},
			want: ErrUnbalanced,
			attr: "index=1",
		},
		{
			name: "block left open",
			cmds: []Command{&LoopStart{List: "xs", Item: "x", Index: "i"}},
			want: ErrUnbalanced,
			attr: "block=loop",
		},
		{
			name: "template end at root",
			cmds: []Command{&ProcedureEnd{}},
			want: ErrUnbalanced,
			attr: "unit=main",
		},
		{
			name: "template left open",
			cmds: []Command{&ProcedureStart{Name: "row"}},
			want: ErrUnbalanced,
			attr: "unit=row",
		},
		{
			name: "block left open in template",
			cmds: []Command{
				&ProcedureStart{Name: "row"},
				&ConditionalStart{Variable: "x", Expected: true},
				&ProcedureEnd{},
			},
			want: ErrUnbalanced,
			attr: "unit=row",
		},
		{
			name: "duplicate template",
			cmds: []Command{
				&ProcedureStart{Name: "row"},
				&ProcedureEnd{},
				&ProcedureStart{Name: "row"},
				&ProcedureEnd{},
			},
			want: ErrDuplicateTemplate,
			attr: "template=row",
		},
		{
			name: "unsupported operation",
			cmds: []Command{
				&BindingStart{Variable: "x", Expr: NewBinary(OpSub, NewMap(), NewInteger(1))},
				&BindingEnd{},
			},
			want: ErrUnsupportedOperation,
			attr: "operator=sub",
		},
		{
			name: "global assignment to a local without conversion",
			cmds: []Command{
				&BindingStart{Variable: "m", Expr: NewMap()},
				&GlobalBinding{Variable: "m", Expr: NewBoolean(true)},
				&BindingEnd{},
			},
			want: ErrUnsupportedOperation,
			attr: "index=1",
		},
		{
			name: "nil command",
			cmds: []Command{&OutText{Text: "a"}, nil},
			want: ErrUnknownNode,
			attr: "index=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Compile(context.Background(), "main", tt.cmds)
			if out != nil {
				t.Error("failed compilation returned output")
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			if !strings.Contains(err.Error(), tt.attr) {
				t.Errorf("error %q does not mention %q", err, tt.attr)
			}
		})
	}
}

func TestCompile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compile(ctx, "main", []Command{&OutText{Text: "a"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want %v", err, context.Canceled)
	}
}

func TestCompile_ShadowDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		cmds     []Command
		opts     []Option
		variable string
		index    int
	}{
		{
			name: "host binding",
			cmds: []Command{
				&BindingStart{Variable: "properties", Expr: NewInteger(1)},
				&BindingEnd{},
			},
			opts:     []Option{WithBindings("properties")},
			variable: "properties",
			index:    0,
		},
		{
			name: "external in use",
			cmds: []Command{
				&OutVariable{Variable: "x"},
				&BindingStart{Variable: "x", Expr: NewString("a")},
				&BindingEnd{},
			},
			variable: "x",
			index:    1,
		},
		{
			name: "loop item",
			cmds: []Command{
				&LoopStart{List: "xs", Item: "request", Index: "i"},
				&LoopEnd{},
			},
			opts:     []Option{WithBindings("request")},
			variable: "request",
			index:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain := compileCommands(t, tt.cmds)
			out := compileCommands(t, tt.cmds, tt.opts...)

			if len(tt.opts) > 0 && plain.Source != out.Source {
				t.Error("diagnostics changed the generated source")
			}

			if len(out.Diagnostics) != 1 {
				t.Fatalf("got %d diagnostics, want 1: %v", len(out.Diagnostics), out.Diagnostics)
			}

			d := out.Diagnostics[0]
			if d.Severity != SeverityWarning || d.Variable != tt.variable ||
				d.Index != tt.index || d.Unit != "main" {
				t.Errorf("unexpected diagnostic %v", d)
			}
		})
	}
}

func TestCompile_NoDiagnostics(t *testing.T) {
	out := compileCommands(t, []Command{
		&BindingStart{Variable: "y", Expr: NewInteger(1)},
		&BindingEnd{},
	}, WithBindings("properties"))

	if len(out.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics %v", out.Diagnostics)
	}
}
