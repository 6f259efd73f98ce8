package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/htlc/lang"
	"github.com/ardnew/htlc/log"
	"github.com/ardnew/htlc/pkg"
)

// defaultDirMode is the permission mode for created output directories.
const defaultDirMode os.FileMode = 0o755

// defaultFileMode is the permission mode for written classes.
const defaultFileMode os.FileMode = 0o644

// classExt is the file extension of generated classes.
const classExt = ".java"

// Compile compiles template documents into render-unit classes.
type Compile struct {
	Out     string `default:"."  help:"Output directory for generated classes"               short:"o" type:"path"`
	Package string `             help:"Package clause of generated classes"                  short:"P"`
	Force   bool   `             help:"Regenerate classes that are up to date"               short:"f"`
	Jobs    int    `default:"0"  help:"Documents compiled concurrently (0 uses GOMAXPROCS)" short:"j"`

	Sources []string `arg:"" help:"Template documents or '-' for stdin" name:"source" type:"path"`
}

// Run executes the compile command. The first failing document cancels the
// documents still in progress.
func (c *Compile) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := loggerFrom(ctx).With(slog.String("cmd", "compile"))

	srcs, err := uniqueSources(c.Sources)
	if err != nil {
		return err
	}

	if len(srcs) == 0 {
		return pkg.ErrNoSource
	}

	err = os.MkdirAll(c.Out, defaultDirMode)
	if err != nil {
		return ErrWriteClass.With(slog.String("dir", c.Out)).Wrap(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs(c.Jobs))

	for _, src := range srcs {
		g.Go(func() error {
			return c.compile(gctx, logger, src)
		})
	}

	return g.Wait()
}

func (c *Compile) compile(
	ctx context.Context,
	logger log.Logger,
	src Source,
) error {
	doc, err := readSource(ctx, src)
	if err != nil {
		return err
	}

	name := lang.ClassName(doc.Name)
	path := filepath.Join(c.Out, name+classExt)

	logger = logger.With(
		slog.String("source", src.Name()),
		slog.String("class", path),
	)

	fp := c.fingerprint(doc.Fingerprint())

	if !c.Force && upToDate(path, fp) {
		logger.DebugContext(ctx, "class up to date")

		return nil
	}

	out, err := doc.Compile(ctx, lang.WithLogger(logger))
	if err != nil {
		return ErrCompile.With(slog.String("source", src.Name())).Wrap(err)
	}

	class, err := lang.RenderClass(out, lang.ClassOptions{
		Package:     c.Package,
		ClassName:   name,
		Fingerprint: fp,
		Generator:   pkg.Name + " " + pkg.Version,
	})
	if err != nil {
		return err
	}

	err = writeFile(path, []byte(class))
	if err != nil {
		return ErrWriteClass.With(slog.String("file", path)).Wrap(err)
	}

	logger.InfoContext(ctx, "class written",
		slog.Int("units", countUnits(out)),
		slog.Int("diagnostics", len(out.Diagnostics)),
	)

	return nil
}

// readSource reads and decodes the document of src.
func readSource(ctx context.Context, src Source) (*lang.Document, error) {
	r, err := src.Open()
	if err != nil {
		return nil, ErrReadSource.With(slog.String("source", src.Name())).Wrap(err)
	}
	defer r.Close()

	doc, err := lang.ReadDocument(ctx, r, src.Name())
	if err != nil && src.IsStdin() && errors.Is(err, lang.ErrReadInput) {
		return nil, pkg.ErrReadStdin.Wrap(err)
	}

	return doc, err
}

// fingerprint identifies everything a class is generated from: the content
// hash of its document, the package clause and the generator version.
func (c *Compile) fingerprint(document uint64) uint64 {
	b := binary.BigEndian.AppendUint64(nil, document)
	b = append(b, c.Package...)
	b = append(b, 0)
	b = append(b, pkg.Version...)

	return lang.Fingerprint(b)
}

// upToDate reports whether the class at path was generated from inputs with
// the given fingerprint.
func upToDate(path string, fingerprint uint64) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	fp, ok := lang.ClassFingerprint(data)

	return ok && fp == fingerprint
}

// writeFile replaces the file at path with data. The content is written to
// a temporary file in the same directory first, so readers never observe a
// partial class.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	_, err = io.Copy(tmp, bytes.NewReader(data))
	if err == nil {
		err = tmp.Chmod(defaultFileMode)
	}

	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), path)
}

func countUnits(out *lang.Output) int {
	n := 0

	for range out.All() {
		n++
	}

	return n
}

func jobs(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}

	return n
}
