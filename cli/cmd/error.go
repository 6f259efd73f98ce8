package cmd

import "github.com/ardnew/htlc/lang"

// Command failures share the structured error type of package lang, so a
// compile failure and the command reporting it log the same way.
var (
	ErrYAMLMarshal = lang.NewError("marshal YAML")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")
	ErrReadSource  = lang.NewError("read template document")
	ErrIsDirectory = lang.NewError("is a directory")
	ErrWriteClass  = lang.NewError("write class file")
	ErrCompile     = lang.NewError("compile template document")
	ErrStrict      = lang.NewError("diagnostics reported with --strict")
)
