package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/htlc/log"
)

// Option configures a compilation.
type Option func(*compilation)

// compilation holds the state shared by every unit of one Compile call.
type compilation struct {
	names    *nameAllocator
	params   []string
	bindings map[string]struct{}
	diags    *Diagnostics
	logger   log.Logger
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *compilation) {
		c.logger = logger
	}
}

// WithParameters declares the call parameters of the root unit. Reads of a
// parameter come from the arguments map instead of the bindings map.
func WithParameters(params ...string) Option {
	return func(c *compilation) {
		c.params = append(c.params, params...)
	}
}

// WithBindings names the host bindings known to exist at render time.
// Variables declared with one of these names are reported as shadowing it.
func WithBindings(names ...string) Option {
	return func(c *compilation) {
		for _, name := range names {
			c.bindings[name] = struct{}{}
		}
	}
}

// Compile generates the source of the unit described by cmds.
//
// Each ProcedureStart opens a sub-unit that receives the following commands
// up to its ProcedureEnd; the finished sub-unit is attached to the unit that
// declared it. A failure aborts the whole compilation and no output is
// returned. The error carries the unit name, command index, and command.
func Compile(
	ctx context.Context,
	name string,
	cmds []Command,
	opts ...Option,
) (*Output, error) {
	c := &compilation{
		names:    newNameAllocator(),
		bindings: make(map[string]struct{}),
		diags:    &Diagnostics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger.TraceContext(ctx, "compile start",
		slog.String("unit", name),
		slog.Int("commands", len(cmds)),
	)

	root, err := c.run(ctx, name, cmds)
	if err != nil {
		return nil, err
	}

	root.Diagnostics = c.diags.Items()

	c.logger.DebugContext(ctx, "compile finished",
		slog.Any("output", root),
		slog.Int("warnings", c.diags.Warnings()),
	)

	return root, nil
}

func (c *compilation) run(
	ctx context.Context,
	name string,
	cmds []Command,
) (*Output, error) {
	stack := []*generator{c.newGenerator(name, c.params)}

	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(err).With(slog.String("unit", name))
		}

		top := stack[len(stack)-1]
		top.index = i

		if cmd == nil {
			return nil, ErrUnknownNode.With(
				slog.String("unit", top.out.Name),
				slog.Int("index", i),
			)
		}

		top.logger.TraceContext(ctx, "command",
			slog.Int("index", i),
			slog.String("command", cmd.String()),
		)

		var err error

		switch cmd := cmd.(type) {
		case *ProcedureStart:
			var child *generator

			child, err = c.startProcedure(top, cmd)
			if err == nil {
				stack = append(stack, child)
			}

		case *ProcedureEnd:
			if len(stack) == 1 {
				err = ErrUnbalanced.With(slog.String("reason", "end without start"),
					slog.String("block", "template"))

				break
			}

			stack = stack[:len(stack)-1]
			err = c.endProcedure(stack[len(stack)-1], top)

		default:
			err = top.visit(cmd)
		}

		if err != nil {
			return nil, WrapError(err).With(
				slog.String("unit", top.out.Name),
				slog.Int("index", i),
				slog.String("command", cmd.String()),
			)
		}
	}

	if n := len(stack); n > 1 {
		return nil, ErrUnbalanced.With(
			slog.String("reason", "block not closed"),
			slog.String("block", "template"),
			slog.String("unit", stack[n-1].out.Name),
		)
	}

	out, err := stack[0].finish()
	if err != nil {
		return nil, WrapError(err).With(slog.String("unit", name))
	}

	return out, nil
}

// startProcedure declares the sub-unit in parent and returns the generator
// that receives its body.
func (c *compilation) startProcedure(
	parent *generator,
	cmd *ProcedureStart,
) (*generator, error) {
	if err := parent.declareTemplate(cmd.Name); err != nil {
		return nil, err
	}

	return c.newGenerator(cmd.Name, cmd.Parameters), nil
}

// endProcedure finishes child and attaches its output to parent.
func (c *compilation) endProcedure(parent, child *generator) error {
	out, err := child.finish()
	if err != nil {
		return err
	}

	return parent.out.add(out)
}
