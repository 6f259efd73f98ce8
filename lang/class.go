package lang

import (
	"bufio"
	"bytes"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/zeebo/xxh3"
)

// ClassPrefix starts the name of every generated class.
const ClassPrefix = "Htl_"

// fingerprintMarker precedes the hexadecimal fingerprint in the first line
// of a generated class.
const fingerprintMarker = "// fingerprint: "

// ClassOptions configures [RenderClass].
type ClassOptions struct {
	// Package is the package clause of the class. Empty means the default
	// package.
	Package string

	// ClassName defaults to the [ClassName] of the root unit name.
	ClassName string

	// Fingerprint identifies the input the class was generated from.
	Fingerprint uint64

	// Generator names the tool in the header comment.
	Generator string
}

const classText = `{{define "class" -}}
// fingerprint: {{printf "%016x" .Fingerprint}}
// Generated by {{.Generator}}. DO NOT EDIT.
{{- if .Package}}

package {{.Package}};
{{- end}}

import java.io.PrintWriter;
import java.util.Collection;
import java.util.Map;

import javax.script.Bindings;

import org.apache.sling.scripting.sightly.render.RenderContext;
import org.apache.sling.scripting.sightly.render.RenderUnit;

public final class {{.ClassName}} extends RenderUnit {

{{unit .Unit | indent 1}}
}
{{end}}

{{- define "unit" -}}
@Override
protected final void render(PrintWriter out,
                            Bindings bindings,
                            Bindings arguments,
                            RenderContext renderContext) {
{{indent 1 .Source -}}
}
{{- with .Children}}

{
{{- range .}}
    addSubTemplate({{quote .Name}}, new RenderUnit() {

{{unit . | indent 2}}
    });
{{- end}}
}
{{- end}}
{{- end}}`

var classTemplate = newClassTemplate()

func newClassTemplate() *template.Template {
	var t *template.Template

	t = template.New("htlc").Funcs(template.FuncMap{
		"indent": indentLines,
		"quote":  quoteText,
		"unit": func(o *Output) (string, error) {
			var b strings.Builder
			err := t.ExecuteTemplate(&b, "unit", o)

			return b.String(), err
		},
	})

	return template.Must(t.Parse(classText))
}

// indentLines prefixes each non-empty line of s with n indentation units.
func indentLines(n int, s string) string {
	prefix := strings.Repeat(indentUnit, n)
	lines := strings.Split(s, "\n")

	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}

	return strings.Join(lines, "\n")
}

// Children returns the sub-units of o in declaration order.
func (o *Output) Children() []*Output {
	children := make([]*Output, 0, len(o.order))
	for _, name := range o.order {
		children = append(children, o.subUnits[name])
	}

	return children
}

// RenderClass returns the source of a render-unit class holding out and all
// of its sub-units.
func RenderClass(out *Output, opts ClassOptions) (string, error) {
	if opts.ClassName == "" {
		opts.ClassName = ClassName(out.Name)
	}

	if opts.Generator == "" {
		opts.Generator = "htlc"
	}

	data := struct {
		ClassOptions
		Unit *Output
	}{opts, out}

	var b strings.Builder

	if err := classTemplate.ExecuteTemplate(&b, "class", data); err != nil {
		return "", ErrRenderClass.Wrap(err).With(slog.String("unit", out.Name))
	}

	return b.String(), nil
}

// ClassName derives a class name from a template path: the base name
// without extension, sanitized and prefixed with [ClassPrefix].
func ClassName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return ClassPrefix + sanitizeName(base)
}

// Fingerprint returns the content hash of data.
func Fingerprint(data []byte) uint64 {
	return xxh3.Hash(data)
}

// ClassFingerprint returns the fingerprint recorded in the header of a class
// generated by [RenderClass].
func ClassFingerprint(class []byte) (uint64, bool) {
	sc := bufio.NewScanner(bytes.NewReader(class))
	if !sc.Scan() {
		return 0, false
	}

	hex, ok := strings.CutPrefix(sc.Text(), fingerprintMarker)
	if !ok {
		return 0, false
	}

	fp, err := strconv.ParseUint(strings.TrimSpace(hex), 16, 64)
	if err != nil {
		return 0, false
	}

	return fp, true
}
