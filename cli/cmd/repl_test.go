package cmd

import (
	"context"
	"testing"

	"github.com/alecthomas/kong"
)

func TestRepl_HistoryDir(t *testing.T) {
	ctx := context.Background()

	if got := (&Repl{History: true}).historyDir(ctx); got != "" {
		t.Errorf("historyDir without kong context = %q, want empty", got)
	}

	if got := (&Repl{History: false}).historyDir(ctx); got != "" {
		t.Errorf("historyDir with history disabled = %q, want empty", got)
	}
}

func TestRepl_HistoryDirFromVars(t *testing.T) {
	dir := t.TempDir()

	var cli struct {
		Repl Repl `cmd:""`
	}

	parser, err := kong.New(&cli, kong.Vars{CacheIdentifier: dir})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse([]string{"repl", "item"})
	if err != nil {
		t.Fatal(err)
	}

	if len(cli.Repl.Params) != 1 || !cli.Repl.History {
		t.Errorf("parsed %+v", cli.Repl)
	}

	ctx := WithContext(context.Background(), ktx)

	if got := cli.Repl.historyDir(ctx); got != dir {
		t.Errorf("historyDir = %q, want %q", got, dir)
	}
}
