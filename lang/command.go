package lang

import (
	"strconv"
	"strings"
)

// Command is one event of a linearized template.
//
// Block forms are split into a start and an end event. The set of
// implementations is closed.
type Command interface {
	command()
	String() string
}

// ConditionalStart opens a block that runs when the truth of Variable equals
// Expected.
type ConditionalStart struct {
	Variable string
	Expected bool
}

// ConditionalEnd closes the innermost conditional block.
type ConditionalEnd struct{}

// BindingStart opens a block with a local Variable bound to Expr.
type BindingStart struct {
	Variable string
	Expr     Expr
}

// BindingEnd closes the innermost binding block.
type BindingEnd struct{}

// GlobalBinding assigns Expr to a unit-wide Variable.
type GlobalBinding struct {
	Variable string
	Expr     Expr
}

// LoopStart opens a block that runs once per element of List, with the
// element bound to Item and its position bound to Index.
type LoopStart struct {
	List  string
	Item  string
	Index string
}

// LoopEnd closes the innermost loop.
type LoopEnd struct{}

// OutText writes literal text.
type OutText struct {
	Text string
}

// OutVariable writes the text form of a variable.
type OutVariable struct {
	Variable string
}

// ProcedureStart opens the body of a callable sub-template.
type ProcedureStart struct {
	Name       string
	Parameters []string
}

// ProcedureEnd closes the innermost sub-template body.
type ProcedureEnd struct{}

// ProcedureCall invokes Template with the map held by the variable
// Arguments.
type ProcedureCall struct {
	Template  string
	Arguments string
}

func (*ConditionalStart) command() {}
func (*ConditionalEnd) command()   {}
func (*BindingStart) command()     {}
func (*BindingEnd) command()       {}
func (*GlobalBinding) command()    {}
func (*LoopStart) command()        {}
func (*LoopEnd) command()          {}
func (*OutText) command()          {}
func (*OutVariable) command()      {}
func (*ProcedureStart) command()   {}
func (*ProcedureEnd) command()     {}
func (*ProcedureCall) command()    {}

func (c *ConditionalStart) String() string {
	return "if " + c.Variable + " == " + strconv.FormatBool(c.Expected)
}

func (*ConditionalEnd) String() string { return "end if" }

func (c *BindingStart) String() string {
	return "let " + c.Variable + " = " + FormatExpr(c.Expr)
}

func (*BindingEnd) String() string { return "end let" }

func (c *GlobalBinding) String() string {
	return "global " + c.Variable + " = " + FormatExpr(c.Expr)
}

func (c *LoopStart) String() string {
	return "loop " + c.Item + ", " + c.Index + " in " + c.List
}

func (*LoopEnd) String() string { return "end loop" }

func (c *OutText) String() string { return "out " + strconv.Quote(c.Text) }

func (c *OutVariable) String() string { return "out-var " + c.Variable }

func (c *ProcedureStart) String() string {
	return "template " + c.Name + "(" + strings.Join(c.Parameters, ", ") + ")"
}

func (*ProcedureEnd) String() string { return "end template" }

func (c *ProcedureCall) String() string {
	return "call " + c.Template + "(" + c.Arguments + ")"
}
