package lang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
)

// Document is the serialized form of one unit: its name, parameters, the
// host bindings known ahead of time, and the linearized command stream.
type Document struct {
	Name       string   `yaml:"name,omitempty"`
	Parameters []string `yaml:"parameters,omitempty"`
	Bindings   []string `yaml:"bindings,omitempty"`
	Commands   []Step   `yaml:"commands"`

	fingerprint uint64
}

// Step is one command of a [Document]. Exactly one field is set.
type Step struct {
	Out      *string    `yaml:"out,omitempty"`
	OutVar   string     `yaml:"out-var,omitempty"`
	Let      *Assign    `yaml:"let,omitempty"`
	Global   *Assign    `yaml:"global,omitempty"`
	If       *Guard     `yaml:"if,omitempty"`
	Loop     *Iteration `yaml:"loop,omitempty"`
	Template *Signature `yaml:"template,omitempty"`
	Call     *Call      `yaml:"call,omitempty"`
	End      string     `yaml:"end,omitempty"`
}

// Assign binds the value of an expression to a variable.
type Assign struct {
	Var  string `yaml:"var"`
	Expr string `yaml:"expr"`
}

// Guard tests the truth of a variable. Not inverts the test.
type Guard struct {
	Var string `yaml:"var"`
	Not bool   `yaml:"not,omitempty"`
}

// Iteration walks the elements of List.
type Iteration struct {
	List  string `yaml:"list"`
	Item  string `yaml:"item,omitempty"`
	Index string `yaml:"index,omitempty"`
}

// Signature declares a callable sub-template.
type Signature struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params,omitempty"`
}

// Call invokes a sub-template with the map held by the variable Args.
type Call struct {
	Template string `yaml:"template"`
	Args     string `yaml:"args,omitempty"`
}

// Names of the end markers.
const (
	EndIf       = "if"
	EndLet      = "let"
	EndLoop     = "loop"
	EndTemplate = "template"
)

// DefaultItem is the loop item name used when a loop names none.
const DefaultItem = "item"

// ReadDocument decodes a YAML or JSON document from r. An empty document
// name is replaced with the base name of source without extension.
func ReadDocument(ctx context.Context, r io.Reader, source string) (*Document, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", source))
	}

	return ParseDocument(ctx, data, source)
}

// ParseDocument decodes a YAML or JSON document from data.
func ParseDocument(ctx context.Context, data []byte, source string) (*Document, error) {
	var doc Document

	err := yaml.UnmarshalContext(ctx, data, &doc, yaml.DisallowUnknownField())
	if err != nil {
		return nil, ErrInvalidDocument.
			Wrap(errors.New(yaml.FormatError(err, false, true))).
			With(slog.String("source", source))
	}

	if doc.Name == "" {
		base := filepath.Base(source)
		doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	doc.fingerprint = Fingerprint(data)

	return &doc, nil
}

// Fingerprint returns the content hash of the bytes the document was decoded
// from, or zero for a document built in memory.
func (d *Document) Fingerprint() uint64 { return d.fingerprint }

func invalidStep(i int, reason string) error {
	return ErrInvalidDocument.With(
		slog.Int("index", i),
		slog.String("reason", reason),
	)
}

// Decode converts the steps of d into commands, parsing every expression.
func (d *Document) Decode() ([]Command, error) {
	cmds := make([]Command, 0, len(d.Commands))

	for i, step := range d.Commands {
		cmd, err := step.command(i)
		if err != nil {
			return nil, WrapError(err).With(slog.String("unit", d.Name))
		}

		cmds = append(cmds, cmd)
	}

	return cmds, nil
}

// Compile decodes d and compiles it with d's parameters and bindings.
func (d *Document) Compile(ctx context.Context, opts ...Option) (*Output, error) {
	cmds, err := d.Decode()
	if err != nil {
		return nil, err
	}

	opts = append([]Option{
		WithParameters(d.Parameters...),
		WithBindings(d.Bindings...),
	}, opts...)

	return Compile(ctx, d.Name, cmds, opts...)
}

func (s Step) set() int {
	n := 0

	for _, ok := range []bool{
		s.Out != nil, s.OutVar != "", s.Let != nil, s.Global != nil,
		s.If != nil, s.Loop != nil, s.Template != nil, s.Call != nil,
		s.End != "",
	} {
		if ok {
			n++
		}
	}

	return n
}

func (s Step) command(i int) (Command, error) {
	if n := s.set(); n != 1 {
		return nil, invalidStep(i, "step must set exactly one command, got "+strconv.Itoa(n))
	}

	switch {
	case s.Out != nil:
		return &OutText{Text: *s.Out}, nil

	case s.OutVar != "":
		return &OutVariable{Variable: s.OutVar}, nil

	case s.Let != nil:
		e, err := parseAssign(i, s.Let)
		if err != nil {
			return nil, err
		}

		return &BindingStart{Variable: s.Let.Var, Expr: e}, nil

	case s.Global != nil:
		e, err := parseAssign(i, s.Global)
		if err != nil {
			return nil, err
		}

		return &GlobalBinding{Variable: s.Global.Var, Expr: e}, nil

	case s.If != nil:
		if s.If.Var == "" {
			return nil, invalidStep(i, "if requires var")
		}

		return &ConditionalStart{Variable: s.If.Var, Expected: !s.If.Not}, nil

	case s.Loop != nil:
		if s.Loop.List == "" {
			return nil, invalidStep(i, "loop requires list")
		}

		item := s.Loop.Item
		if item == "" {
			item = DefaultItem
		}

		index := s.Loop.Index
		if index == "" {
			index = item + "Index"
		}

		return &LoopStart{List: s.Loop.List, Item: item, Index: index}, nil

	case s.Template != nil:
		if s.Template.Name == "" {
			return nil, invalidStep(i, "template requires name")
		}

		return &ProcedureStart{Name: s.Template.Name, Parameters: s.Template.Params}, nil

	case s.Call != nil:
		if s.Call.Template == "" {
			return nil, invalidStep(i, "call requires template")
		}

		return &ProcedureCall{Template: s.Call.Template, Arguments: s.Call.Args}, nil

	default:
		switch s.End {
		case EndIf:
			return &ConditionalEnd{}, nil
		case EndLet:
			return &BindingEnd{}, nil
		case EndLoop:
			return &LoopEnd{}, nil
		case EndTemplate:
			return &ProcedureEnd{}, nil
		default:
			return nil, invalidStep(i, "unknown end marker "+strconv.Quote(s.End))
		}
	}
}

func parseAssign(i int, a *Assign) (Expr, error) {
	if a.Var == "" {
		return nil, invalidStep(i, "binding requires var")
	}

	e, err := ParseExpr(a.Expr)
	if err != nil {
		return nil, WrapError(err).With(slog.Int("index", i))
	}

	return e, nil
}

// NewDocument builds a document from a command stream. Expressions are
// written with [FormatExpr].
func NewDocument(name string, params, bindings []string, cmds []Command) (*Document, error) {
	doc := &Document{
		Name:       name,
		Parameters: params,
		Bindings:   bindings,
		Commands:   make([]Step, 0, len(cmds)),
	}

	for i, cmd := range cmds {
		step, err := stepOf(cmd)
		if err != nil {
			return nil, WrapError(err).With(slog.Int("index", i))
		}

		doc.Commands = append(doc.Commands, step)
	}

	return doc, nil
}

func stepOf(cmd Command) (Step, error) {
	switch c := cmd.(type) {
	case *ConditionalStart:
		return Step{If: &Guard{Var: c.Variable, Not: !c.Expected}}, nil
	case *ConditionalEnd:
		return Step{End: EndIf}, nil
	case *BindingStart:
		return Step{Let: &Assign{Var: c.Variable, Expr: FormatExpr(c.Expr)}}, nil
	case *BindingEnd:
		return Step{End: EndLet}, nil
	case *GlobalBinding:
		return Step{Global: &Assign{Var: c.Variable, Expr: FormatExpr(c.Expr)}}, nil
	case *LoopStart:
		return Step{Loop: &Iteration{List: c.List, Item: c.Item, Index: c.Index}}, nil
	case *LoopEnd:
		return Step{End: EndLoop}, nil
	case *OutText:
		text := c.Text

		return Step{Out: &text}, nil
	case *OutVariable:
		return Step{OutVar: c.Variable}, nil
	case *ProcedureStart:
		return Step{Template: &Signature{Name: c.Name, Params: c.Parameters}}, nil
	case *ProcedureEnd:
		return Step{End: EndTemplate}, nil
	case *ProcedureCall:
		return Step{Call: &Call{Template: c.Template, Args: c.Arguments}}, nil
	default:
		return Step{}, ErrUnknownNode.With(slog.String("node", fmt.Sprintf("%T", cmd)))
	}
}

// Canonical returns a copy of d with every expression reformatted by
// [FormatExpr].
func (d *Document) Canonical() (*Document, error) {
	cmds, err := d.Decode()
	if err != nil {
		return nil, err
	}

	out, err := NewDocument(d.Name, d.Parameters, d.Bindings, cmds)
	if err != nil {
		return nil, err
	}

	out.fingerprint = d.fingerprint

	return out, nil
}
