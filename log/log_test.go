package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// decode parses one JSON record written with pretty printing disabled.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}

	return rec
}

func TestMake_Defaults(t *testing.T) {
	l := Make(&bytes.Buffer{})

	if l.Level() != DefaultLevel {
		t.Errorf("level = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.format != DefaultFormat || l.caller != DefaultCaller || l.pretty != DefaultPretty {
		t.Errorf("config = %v/%v/%v", l.format, l.caller, l.pretty)
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		min   Level
		log   func(Logger)
		level string
		want  bool
	}{
		{min: LevelTrace, log: func(l Logger) { l.Trace("m") }, level: "TRACE", want: true},
		{min: LevelDebug, log: func(l Logger) { l.Trace("m") }, want: false},
		{min: LevelDebug, log: func(l Logger) { l.Debug("m") }, level: "DEBUG", want: true},
		{min: LevelInfo, log: func(l Logger) { l.Debug("m") }, want: false},
		{min: LevelInfo, log: func(l Logger) { l.InfoContext(context.Background(), "m") }, level: "INFO", want: true},
		{min: LevelError, log: func(l Logger) { l.Warn("m") }, want: false},
		{min: LevelWarn, log: func(l Logger) { l.WarnContext(context.Background(), "m") }, level: "WARN", want: true},
		{min: LevelError, log: func(l Logger) { l.ErrorContext(context.Background(), "m") }, level: "ERROR", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.min.String()+"/"+tt.level, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.min), WithPretty(false)))

			if got := buf.Len() > 0; got != tt.want {
				t.Fatalf("logged = %v, want %v", got, tt.want)
			}

			if !tt.want {
				return
			}

			if rec := decode(t, &buf); rec["level"] != tt.level {
				t.Errorf("level = %v, want %s", rec["level"], tt.level)
			}
		})
	}
}

func TestLogger_CallerIsCallSite(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false)).Info("here")

	src, ok := decode(t, &buf)["source"].(map[string]any)
	if !ok {
		t.Fatalf("no source group in %s", buf.String())
	}

	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %q, want the calling test file", file)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithPretty(false), WithTimeLayout("none")).
		Info("unit finished", slog.Int("variables", 3))

	got := strings.TrimSpace(buf.String())
	if want := `level=INFO msg="unit finished" variables=3`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithPretty(false))
	base.With(slog.String("unit", "main")).Info("m")

	if rec := decode(t, &buf); rec["unit"] != "main" {
		t.Errorf("unit = %v, want main", rec["unit"])
	}

	buf.Reset()
	base.Info("m")

	if _, ok := decode(t, &buf)["unit"]; ok {
		t.Error("With changed the receiver")
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithPretty(false))
	debug := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != DefaultLevel || debug.Level() != LevelDebug {
		t.Errorf("levels = %v, %v", base.Level(), debug.Level())
	}

	debug.Debug("m")

	if buf.Len() == 0 {
		t.Error("wrapped logger did not write to the original output")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("m")
	l.Info("m", slog.String("k", "v"))
	l.ErrorContext(context.Background(), "m")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on the zero value created a logger")
	}

	if l.Level() != DefaultLevel {
		t.Errorf("level = %v, want %v", l.Level(), DefaultLevel)
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf syncBuffer
		wg  sync.WaitGroup
	)

	l := Make(&buf, WithPretty(false))

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			l.With(slog.Int("worker", i)).Info("m")
		}()
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 16 {
		t.Errorf("%d records, want 16", n)
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
