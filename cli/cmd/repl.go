package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/htlc/cli/cmd/repl"
)

// Repl starts an interactive session that translates expressions and
// reports their inferred types.
type Repl struct {
	History bool `default:"true" help:"Persist input history in the cache directory" negatable:""`

	Params []string `arg:"" help:"Parameters of the unit expressions are translated in" name:"param" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	logger := loggerFrom(ctx).With(slog.String("cmd", "repl"))

	return repl.Run(ctx, r.Params, r.historyDir(ctx), logger)
}

// historyDir returns the directory keeping the history file, or the empty
// string when history is not persisted.
func (r *Repl) historyDir(ctx context.Context) string {
	if !r.History {
		return ""
	}

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[CacheIdentifier]
}
