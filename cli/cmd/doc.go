// Package cmd provides the htlc subcommands: compile, check, fmt, repl and
// init.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file. It also names the top-level mapping of that
	// file.
	ConfigIdentifier = "config"
)
