package lang

import "math"

// Expr is a node of an expression tree.
//
// The set of implementations is closed: every pass over expressions switches
// over exactly the node types declared in this file. Nodes are immutable and
// must not be shared between two positions of a tree, since inference results
// are keyed by node identity.
type Expr interface {
	exprNode()
}

// Identifier references a variable by its template name.
type Identifier struct {
	Name string
}

// StringLit is a text literal.
type StringLit struct {
	Value string
}

// NumberLit is a numeric literal.
//
// Literals built with [NewInteger] hold an exact int64. Literals built with
// [NewFloat] hold a float64 and are still typed Integer when the value has no
// fractional part.
type NumberLit struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// BooleanLit is a truth literal.
type BooleanLit struct {
	Value bool
}

// NullLit is the null literal.
type NullLit struct{}

// BinaryOp applies a binary operator to two operands.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

// UnaryOp applies a unary operator to one operand.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expr
}

// Ternary selects Then or Else by the truth of Cond.
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// PropertyAccess reads Property of Target (target.property).
type PropertyAccess struct {
	Target   Expr
	Property Expr
}

// RuntimeCall invokes a named runtime extension with ordered arguments.
type RuntimeCall struct {
	Name string
	Args []Expr
}

// MapEntry is one key/value pair of a [MapLit].
type MapEntry struct {
	Key   string
	Value Expr
}

// MapLit is an ordered map literal.
type MapLit struct {
	Entries []MapEntry
}

// ArrayLit is an ordered list literal.
type ArrayLit struct {
	Items []Expr
}

func (*Identifier) exprNode()     {}
func (*StringLit) exprNode()      {}
func (*NumberLit) exprNode()      {}
func (*BooleanLit) exprNode()     {}
func (*NullLit) exprNode()        {}
func (*BinaryOp) exprNode()       {}
func (*UnaryOp) exprNode()        {}
func (*Ternary) exprNode()        {}
func (*PropertyAccess) exprNode() {}
func (*RuntimeCall) exprNode()    {}
func (*MapLit) exprNode()         {}
func (*ArrayLit) exprNode()       {}

// IsIntegral reports whether the literal has no fractional part.
func (n *NumberLit) IsIntegral() bool {
	if !n.IsFloat {
		return true
	}

	return !math.IsInf(n.Float, 0) && !math.IsNaN(n.Float) &&
		n.Float == math.Trunc(n.Float) &&
		n.Float >= math.MinInt64 && n.Float < math.MaxInt64
}

// NewIdentifier returns an identifier reference.
func NewIdentifier(name string) *Identifier { return &Identifier{Name: name} }

// NewString returns a text literal.
func NewString(s string) *StringLit { return &StringLit{Value: s} }

// NewInteger returns an integer literal.
func NewInteger(n int64) *NumberLit { return &NumberLit{Int: n} }

// NewFloat returns a floating-point literal.
func NewFloat(f float64) *NumberLit { return &NumberLit{Float: f, IsFloat: true} }

// NewBoolean returns a truth literal.
func NewBoolean(b bool) *BooleanLit { return &BooleanLit{Value: b} }

// NewNull returns the null literal.
func NewNull() *NullLit { return &NullLit{} }

// NewBinary returns a binary operation.
func NewBinary(op BinaryOperator, left, right Expr) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

// NewUnary returns a unary operation.
func NewUnary(op UnaryOperator, operand Expr) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand}
}

// NewTernary returns a conditional expression.
func NewTernary(cond, then, els Expr) *Ternary {
	return &Ternary{Cond: cond, Then: then, Else: els}
}

// NewProperty returns a property access.
func NewProperty(target, property Expr) *PropertyAccess {
	return &PropertyAccess{Target: target, Property: property}
}

// NewCall returns a runtime call.
func NewCall(name string, args ...Expr) *RuntimeCall {
	return &RuntimeCall{Name: name, Args: args}
}

// NewMap returns a map literal.
func NewMap(entries ...MapEntry) *MapLit { return &MapLit{Entries: entries} }

// NewArray returns a list literal.
func NewArray(items ...Expr) *ArrayLit { return &ArrayLit{Items: items} }
