// Package profile provides optional runtime profiling for the htlc
// compiler.
//
// # Overview
//
// This package integrates [github.com/pkg/profile] with conditional
// compilation. Profiling must be enabled at build time using the "pprof"
// build tag:
//
//	go build -tags pprof -o htlc .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op.
//
// # Available Profiling Modes
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// # Usage
//
//	p := profile.Make(
//		profile.WithMode("cpu"),
//		profile.WithPath("/tmp/profiles"),
//	)
//	defer p.Start().Stop()
//
// Profile files are written to the given directory with names matching the
// profiling mode (cpu.pprof, mem.pprof). From the command line:
//
//	htlc --pprof-mode=cpu compile templates/*.yaml
//	go tool pprof -http=: ~/.cache/htlc/pprof/cpu.pprof
//
// Profiling stops when the returned value's Stop method is called; no
// signal handler is installed.
package profile
