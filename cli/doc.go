// Package cli contains the command line interface for htlc.
//
// # Usage
//
// The default command compiles template documents into render-unit classes:
//
//	htlc -o build/classes -P apps.site page.yaml list.yaml
//
// Other commands check documents without writing classes, format a
// document, translate expressions interactively, and write a configuration
// file holding the current flag values:
//
//	htlc check --strict templates/*.yaml
//	htlc fmt --json page.yaml
//	htlc repl item index
//	htlc init
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory. Its top-level "config" mapping holds one key per flag name:
//
//	config:
//	  log-level: debug
//	  jobs: 4
//	  package: apps.site
//
// Command-line flags override config file values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output (default when stderr is a terminal)
//
// Every run tags its log records with a random run id.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o htlc .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     subdirectory of the user cache directory)
package cli
