package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/htlc/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type loggerKey struct{}

// WithLogger returns a new context.Context carrying the logger used by
// subcommands, typically the default logger tagged with the run id.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom returns the logger stored by [WithLogger], or the default
// logger when there is none.
func loggerFrom(ctx context.Context) log.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(log.Logger); ok {
		return logger
	}

	return log.Default()
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// Source is a template document named on the command line.
type Source struct {
	// Path is the path as given, or "-" for stdin.
	Path string
}

// IsStdin reports whether s reads from standard input.
func (s Source) IsStdin() bool { return s.Path == stdinSource }

// Name returns the name used for s in messages and for deriving unit names.
func (s Source) Name() string {
	if s.IsStdin() {
		return "stdin"
	}

	return s.Path
}

// Open opens s for reading. Closing the result of a stdin source leaves
// os.Stdin open.
func (s Source) Open() (io.ReadCloser, error) {
	if s.IsStdin() {
		return io.NopCloser(os.Stdin), nil
	}

	return os.Open(s.Path)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files. Files without device and inode numbers are
// identified by their resolved path.
type fileKey struct {
	dev  uint64
	ino  uint64
	path string
}

// uniqueSources returns the distinct documents named by paths.
//
// Paths that resolve to the same file (through symlinks or relative and
// absolute spellings) are kept once, in the position of their first
// occurrence. All occurrences of "-" collapse into a single stdin source
// placed last. A path that cannot be resolved is an error.
func uniqueSources(paths []string) ([]Source, error) {
	srcs := make([]Source, 0, len(paths))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, hasStdinKey := makeFileKey(stdinInfo)

	hasStdin := false

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		key, err := resolveFileKey(path)
		if err != nil {
			return nil, ErrReadSource.
				With(slog.String("source", path)).
				Wrap(err)
		}

		if hasStdinKey && key == stdinKey {
			hasStdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}

		srcs = append(srcs, Source{Path: path})
	}

	if hasStdin {
		srcs = append(srcs, Source{Path: stdinSource})
	}

	return srcs, nil
}

// resolveFileKey resolves path to an absolute, symlink-free path and returns
// the device and inode of the file it names.
func resolveFileKey(path string) (fileKey, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, err
	}

	if info.IsDir() {
		return fileKey{}, ErrIsDirectory
	}

	key, ok := makeFileKey(info)
	if !ok {
		return fileKey{path: resolved}, nil
	}

	return key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
