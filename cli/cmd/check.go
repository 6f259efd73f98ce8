package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/htlc/lang"
	"github.com/ardnew/htlc/pkg"
)

// Check compiles template documents without writing classes and reports
// errors and diagnostics for each of them.
type Check struct {
	Strict bool `help:"Fail when a document has diagnostics"`
	Jobs   int  `default:"0" help:"Documents checked concurrently (0 uses GOMAXPROCS)" short:"j"`

	Sources []string `arg:"" help:"Template documents or '-' for stdin" name:"source" type:"path"`

	w io.Writer
}

// checkResult is the outcome of checking one document.
type checkResult struct {
	src Source
	out *lang.Output
	err error
}

// Run executes the check command. Every document is checked, and the
// failures of all of them are returned together.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := loggerFrom(ctx).With(slog.String("cmd", "check"))

	srcs, err := uniqueSources(c.Sources)
	if err != nil {
		return err
	}

	if len(srcs) == 0 {
		return pkg.ErrNoSource
	}

	results := make([]checkResult, len(srcs))

	var g errgroup.Group

	g.SetLimit(jobs(c.Jobs))

	for i, src := range srcs {
		g.Go(func() error {
			results[i] = checkResult{src: src}

			doc, err := readSource(ctx, src)
			if err != nil {
				results[i].err = err

				return nil
			}

			results[i].out, results[i].err = doc.Compile(ctx, lang.WithLogger(logger))

			return nil
		})
	}

	_ = g.Wait()

	w := c.w
	if w == nil {
		w = os.Stdout
	}

	var errs []error

	report := newReport(w)

	for _, r := range results {
		report.write(r)

		switch {
		case r.err != nil:
			errs = append(errs, r.err)

		case c.Strict && len(r.out.Diagnostics) > 0:
			errs = append(errs, ErrStrict.With(
				slog.String("source", r.src.Name()),
				slog.Int("diagnostics", len(r.out.Diagnostics)),
			))
		}
	}

	if len(errs) > 0 {
		return pkg.ErrCompileFailed.Wrap(errs...)
	}

	return nil
}

// report renders check results, colored when w is a terminal.
type report struct {
	w                      io.Writer
	ok, warn, fail, detail lipgloss.Style
}

func newReport(w io.Writer) report {
	r := lipgloss.NewRenderer(w)

	return report{
		w:      w,
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		detail: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (r report) write(res checkResult) {
	var b strings.Builder

	switch {
	case res.err != nil:
		fmt.Fprintf(&b, "%s %s\n", label(r.fail, "FAIL"), res.src.Name())
		fmt.Fprintf(&b, "     %s\n", r.detail.Render(res.err.Error()))

	case len(res.out.Diagnostics) > 0:
		fmt.Fprintf(&b, "%s %s %s\n", label(r.warn, "WARN"), res.src.Name(),
			r.detail.Render(summary(res.out)))

		for _, d := range res.out.Diagnostics {
			fmt.Fprintf(&b, "     %s\n", r.detail.Render(d.String()))
		}

	default:
		fmt.Fprintf(&b, "%s %s %s\n", label(r.ok, "OK"), res.src.Name(),
			r.detail.Render(summary(res.out)))
	}

	_, _ = io.WriteString(r.w, b.String())
}

// label renders a status word padded to the width of the widest status.
func label(style lipgloss.Style, status string) string {
	const width = 4

	return style.Render(status) + strings.Repeat(" ", max(0, width-len(status)))
}

func summary(out *lang.Output) string {
	units := countUnits(out)

	s := fmt.Sprintf("(%d unit", units)
	if units != 1 {
		s += "s"
	}

	if n := len(out.Diagnostics); n > 0 {
		s += fmt.Sprintf(", %d diagnostic", n)
		if n != 1 {
			s += "s"
		}
	}

	return s + ")"
}
