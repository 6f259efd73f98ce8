package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/htlc/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	)

	logger.Info("class written", slog.String("class", "Htl_page"), slog.Int("units", 2))
	logger.Debug("not written")

	// Output:
	// level=INFO msg="class written" class=Htl_page units=2
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	).With(slog.String("unit", "row"))

	logger.Warn("shadowed external binding", slog.String("variable", "item"))

	// Output:
	// level=WARN msg="shadowed external binding" unit=row variable=item
}

func ExampleLogger_Wrap() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false),
	)

	trace := logger.Wrap(log.WithLevel(log.LevelTrace))
	trace.TraceContext(context.Background(), "declare local", slog.String("name", "var_x_0"))

	// Output:
	// level=TRACE msg="declare local" name=var_x_0
}
