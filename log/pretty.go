package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers. Styles are bound to
// a renderer for the handler's writer, so color is only emitted when the
// writer is a terminal that supports it.
type palette struct {
	key, text, number, boolTrue, boolFalse, duration, time, null lipgloss.Style

	levelError, levelWarn, levelInfo, levelDebug lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:        fg("8"),
		text:       fg("6"),
		number:     fg("3"),
		boolTrue:   fg("2"),
		boolFalse:  fg("1"),
		duration:   fg("5"),
		time:       fg("4"),
		null:       fg("8"),
		levelError: fg("1").Bold(true),
		levelWarn:  fg("3").Bold(true),
		levelInfo:  fg("2"),
		levelDebug: fg("4"),
	}
}

func (p palette) level(l slog.Level) string {
	name := Level(l).String()

	switch {
	case l >= slog.LevelError:
		return p.levelError.Render(name)
	case l >= slog.LevelWarn:
		return p.levelWarn.Render(name)
	case l >= slog.LevelInfo:
		return p.levelInfo.Render(name)
	default:
		return p.levelDebug.Render(name)
	}
}

// attrSet is the attribute state shared by both pretty handlers: attributes
// added with WithAttrs and the open group prefix.
type attrSet struct {
	attrs  []slog.Attr
	prefix string
}

func (s attrSet) withAttrs(attrs []slog.Attr) attrSet {
	out := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	out = append(out, s.attrs...)

	for _, a := range attrs {
		a.Key = s.prefix + a.Key
		out = append(out, a)
	}

	return attrSet{attrs: out, prefix: s.prefix}
}

func (s attrSet) withGroup(name string) attrSet {
	if name == "" {
		return s
	}

	return attrSet{attrs: s.attrs, prefix: s.prefix + name + "."}
}

// each yields the stored attributes followed by the record's, with the
// record's keys qualified by the open group.
func (s attrSet) each(r slog.Record, fn func(slog.Attr)) {
	for _, a := range s.attrs {
		fn(a)
	}

	r.Attrs(func(a slog.Attr) bool {
		a.Key = s.prefix + a.Key
		fn(a)

		return true
	})
}

// prettyTextHandler implements a colorized text handler for log messages.
type prettyTextHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	style palette
	set   attrSet
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: newPalette(w),
	}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if t := h.formatTime(r); t != "" {
		h.writeKey(buf, slog.TimeKey)
		buf.WriteString(h.style.time.Render(t))
	}

	h.writeKey(buf, slog.LevelKey)
	buf.WriteString(h.style.level(r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.writeKey(buf, slog.SourceKey)
			buf.WriteString(h.style.text.Render(fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	h.writeKey(buf, slog.MessageKey)
	buf.WriteString(h.style.text.Render(r.Message))

	h.set.each(r, func(a slog.Attr) {
		h.writeAttr(buf, a)
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// formatTime applies the configured time replacement, if any, and returns
// the empty string when the time should be omitted.
func (h *prettyTextHandler) formatTime(r slog.Record) string {
	if r.Time.IsZero() {
		return ""
	}

	a := slog.Time(slog.TimeKey, r.Time)
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return ""
	}

	return a.Value.String()
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.set = h.set.withAttrs(attrs)

	return &c
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.set = h.set.withGroup(name)

	return &c
}

func (h *prettyTextHandler) writeKey(buf *bytes.Buffer, key string) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(h.style.key.Render(key))
	buf.WriteByte('=')
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if a.Key != "" {
				ga.Key = a.Key + "." + ga.Key
			}

			h.writeAttr(buf, ga)
		}

		return
	}

	if a.Equal(slog.Attr{}) {
		return
	}

	h.writeKey(buf, a.Key)
	buf.WriteString(h.style.value(a.Value))
}

func (p palette) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return p.text.Render(v.String())

	case slog.KindInt64:
		return p.number.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return p.number.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return p.number.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return p.boolTrue.Render("true")
		}

		return p.boolFalse.Render("false")

	case slog.KindDuration:
		return p.duration.Render(v.Duration().String())

	case slog.KindTime:
		return p.time.Render(v.Time().String())

	case slog.KindAny:
		if level, ok := v.Any().(slog.Level); ok {
			return p.level(level)
		}

		if v.Any() == nil {
			return p.null.Render("null")
		}

		return p.text.Render(v.String())

	default:
		return p.text.Render(v.String())
	}
}

// prettyJSONHandler implements a pretty-printed JSON handler for log messages.
type prettyJSONHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	style palette
	set   attrSet
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: newPalette(w),
	}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	buf.WriteString("{\n")

	first := true

	if !r.Time.IsZero() {
		a := slog.Time(slog.TimeKey, r.Time)
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			h.writeField(buf, 1, a.Key, h.style.time.Render(a.Value.String()), &first)
		}
	}

	h.writeField(buf, 1, slog.LevelKey, h.style.level(r.Level), &first)

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.writeField(buf, 1, slog.SourceKey,
				h.style.text.Render(fmt.Sprintf("%s:%d", src.File, src.Line)), &first)
		}
	}

	h.writeField(buf, 1, slog.MessageKey, h.style.text.Render(r.Message), &first)

	h.set.each(r, func(a slog.Attr) {
		h.writeAttr(buf, 1, a, &first)
	})

	buf.WriteString("\n}\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.set = h.set.withAttrs(attrs)

	return &c
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.set = h.set.withGroup(name)

	return &c
}

func (h *prettyJSONHandler) writeField(
	buf *bytes.Buffer,
	depth int,
	key, value string,
	first *bool,
) {
	if !*first {
		buf.WriteString(",\n")
	}

	*first = false

	buf.WriteString(strings.Repeat("  ", depth))
	buf.WriteString(h.style.key.Render(key))
	buf.WriteString(": ")
	buf.WriteString(value)
}

func (h *prettyJSONHandler) writeAttr(
	buf *bytes.Buffer,
	depth int,
	a slog.Attr,
	first *bool,
) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() != slog.KindGroup {
		h.writeField(buf, depth, a.Key, h.style.value(a.Value), first)

		return
	}

	h.writeField(buf, depth, a.Key, "{\n", first)

	nested := true
	for _, ga := range a.Value.Group() {
		h.writeAttr(buf, depth+1, ga, &nested)
	}

	buf.WriteString("\n" + strings.Repeat("  ", depth) + "}")
}
