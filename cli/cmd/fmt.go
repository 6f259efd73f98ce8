package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/htlc/lang"
	"github.com/ardnew/htlc/pkg"
)

// Fmt reads a template document, canonicalizes it, and writes it in the
// chosen format.
type Fmt struct {
	YAML     YAML     `cmd:"" default:"withargs" help:"Format as YAML (default)."`
	JSON     JSON     `cmd:""                    help:"Format as JSON."`
	Commands Commands `cmd:""                    help:"List the decoded command stream."`
}

// YAML formats a document as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`

	w io.Writer
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if y.Indent < 0 {
		return pkg.ErrInvalidFormat.Wrapf("YAML indent %d is negative", y.Indent)
	}

	doc, err := canonical(ctx, y.Source, "yaml")
	if err != nil {
		return err
	}

	return doc.FormatYAML(ctx, writerOr(y.w), y.Indent)
}

// JSON formats a document as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 for compact)" short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`

	w io.Writer
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if j.Indent < 0 {
		return pkg.ErrInvalidFormat.Wrapf("JSON indent %d is negative", j.Indent)
	}

	doc, err := canonical(ctx, j.Source, "json")
	if err != nil {
		return err
	}

	return doc.FormatJSON(ctx, writerOr(j.w), j.Indent)
}

// Commands prints the decoded command stream, one command per line, indented
// by block depth.
type Commands struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for default stdin." name:"source"`

	w io.Writer
}

// Run executes the commands command.
func (c *Commands) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	doc, err := readSource(ctx, Source{Path: c.Source})
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", "commands"))
	}

	cmds, err := doc.Decode()
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", "commands"))
	}

	w := writerOr(c.w)
	depth := 0

	for _, cmd := range cmds {
		if closesBlock(cmd) && depth > 0 {
			depth--
		}

		_, err = fmt.Fprintf(w, "%*s%s\n", 2*depth, "", cmd)
		if err != nil {
			return err
		}

		if opensBlock(cmd) {
			depth++
		}
	}

	return nil
}

// canonical reads the document at path and returns its canonical form.
func canonical(ctx context.Context, path, format string) (*lang.Document, error) {
	doc, err := readSource(ctx, Source{Path: path})
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("format", format))
	}

	doc, err = doc.Canonical()
	if err != nil {
		return nil, lang.WrapError(err).With(slog.String("format", format))
	}

	return doc, nil
}

func opensBlock(cmd lang.Command) bool {
	switch cmd.(type) {
	case *lang.BindingStart, *lang.ConditionalStart,
		*lang.LoopStart, *lang.ProcedureStart:
		return true
	}

	return false
}

func closesBlock(cmd lang.Command) bool {
	switch cmd.(type) {
	case *lang.BindingEnd, *lang.ConditionalEnd,
		*lang.LoopEnd, *lang.ProcedureEnd:
		return true
	}

	return false
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}

	return w
}
