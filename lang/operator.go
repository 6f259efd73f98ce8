package lang

import (
	"log/slog"
	"strings"
)

// BinaryOperator identifies an operator applied to two operands.
type BinaryOperator int

// Binary operators.
const (
	OpAnd BinaryOperator = iota
	OpOr
	OpConcat
	OpEq
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIntDiv
	OpRem
	OpIn
	numBinaryOperators
)

// UnaryOperator identifies an operator applied to one operand.
type UnaryOperator int

// Unary operators.
const (
	OpNot UnaryOperator = iota
	OpNeg
	OpLength
	OpIsWhitespace
	numUnaryOperators
)

var binaryNames = [numBinaryOperators]string{
	OpAnd:    "and",
	OpOr:     "or",
	OpConcat: "concat",
	OpEq:     "eq",
	OpNeq:    "neq",
	OpLt:     "lt",
	OpLeq:    "leq",
	OpGt:     "gt",
	OpGeq:    "geq",
	OpAdd:    "add",
	OpSub:    "sub",
	OpMul:    "mul",
	OpDiv:    "div",
	OpIntDiv: "intdiv",
	OpRem:    "rem",
	OpIn:     "in",
}

var unaryNames = [numUnaryOperators]string{
	OpNot:          "not",
	OpNeg:          "neg",
	OpLength:       "length",
	OpIsWhitespace: "isWhitespace",
}

// String returns the operator name.
func (op BinaryOperator) String() string {
	if op < 0 || op >= numBinaryOperators {
		return "Invalid"
	}

	return binaryNames[op]
}

// String returns the operator name.
func (op UnaryOperator) String() string {
	if op < 0 || op >= numUnaryOperators {
		return "Invalid"
	}

	return unaryNames[op]
}

// ParseBinaryOperator returns the binary operator with the given name.
func ParseBinaryOperator(name string) (BinaryOperator, error) {
	for op, s := range binaryNames {
		if strings.EqualFold(s, name) {
			return BinaryOperator(op), nil
		}
	}

	return 0, ErrUnknownOperator.With(slog.String("operator", name))
}

// ParseUnaryOperator returns the unary operator with the given name.
func ParseUnaryOperator(name string) (UnaryOperator, error) {
	for op, s := range unaryNames {
		if strings.EqualFold(s, name) {
			return UnaryOperator(op), nil
		}
	}

	return 0, ErrUnknownOperator.With(slog.String("operator", name))
}

// operand is a translated expression paired with its inferred type.
type operand struct {
	expr Expr
	src  string
	typ  Type
}

// binaryRule is the registered behavior of one binary operator.
type binaryRule struct {
	result func(l, r Type) Type
	emit   func(tr *translator, op BinaryOperator, l, r operand) (string, error)
}

// unaryRule is the registered behavior of one unary operator.
type unaryRule struct {
	result func(t Type) Type
	emit   func(tr *translator, op UnaryOperator, x operand) (string, error)
}

// binaryRules is indexed by operator and never modified after package
// initialization.
var binaryRules = [numBinaryOperators]binaryRule{
	OpAnd:    {result: sameOrUnknown, emit: emitLogical},
	OpOr:     {result: sameOrUnknown, emit: emitLogical},
	OpConcat: {result: alwaysText, emit: emitConcat},
	OpEq:     {result: alwaysBoolean, emit: emitEquality},
	OpNeq:    {result: alwaysBoolean, emit: emitEquality},
	OpLt:     {result: alwaysBoolean, emit: emitComparison},
	OpLeq:    {result: alwaysBoolean, emit: emitComparison},
	OpGt:     {result: alwaysBoolean, emit: emitComparison},
	OpGeq:    {result: alwaysBoolean, emit: emitComparison},
	OpAdd:    {result: addResult, emit: emitAdd},
	OpSub:    {result: numericResult, emit: emitArithmetic},
	OpMul:    {result: numericResult, emit: emitArithmetic},
	OpDiv:    {result: alwaysFloat, emit: emitArithmetic},
	OpIntDiv: {result: alwaysInteger, emit: emitArithmetic},
	OpRem:    {result: alwaysInteger, emit: emitArithmetic},
	OpIn:     {result: alwaysBoolean, emit: emitIn},
}

var unaryRules = [numUnaryOperators]unaryRule{
	OpNot:          {result: func(Type) Type { return TypeBoolean }, emit: emitNot},
	OpNeg:          {result: negResult, emit: emitNeg},
	OpLength:       {result: func(Type) Type { return TypeInteger }, emit: emitLength},
	OpIsWhitespace: {result: func(Type) Type { return TypeBoolean }, emit: emitIsWhitespace},
}

func lookupBinary(op BinaryOperator) (binaryRule, error) {
	if op < 0 || op >= numBinaryOperators {
		return binaryRule{}, ErrUnknownOperator.With(slog.Int("operator", int(op)))
	}

	return binaryRules[op], nil
}

func lookupUnary(op UnaryOperator) (unaryRule, error) {
	if op < 0 || op >= numUnaryOperators {
		return unaryRule{}, ErrUnknownOperator.With(slog.Int("operator", int(op)))
	}

	return unaryRules[op], nil
}

// Type rules.

func sameOrUnknown(l, r Type) Type {
	if l == r {
		return l
	}

	return TypeUnknown
}

func alwaysText(Type, Type) Type    { return TypeText }
func alwaysBoolean(Type, Type) Type { return TypeBoolean }
func alwaysFloat(Type, Type) Type   { return TypeFloat }
func alwaysInteger(Type, Type) Type { return TypeInteger }

// numericResult is Integer only when both operands are Integer.
func numericResult(l, r Type) Type {
	if l == TypeInteger && r == TypeInteger {
		return TypeInteger
	}

	return TypeFloat
}

func addResult(l, r Type) Type {
	if l == TypeText || r == TypeText {
		return TypeText
	}

	return numericResult(l, r)
}

func negResult(t Type) Type {
	if t == TypeInteger {
		return TypeInteger
	}

	return TypeFloat
}

// numericCapable reports whether a value of type t can take part in native
// arithmetic after coercion.
func numericCapable(t Type) bool {
	return t.IsNumeric() || t == TypeUnknown
}

// Emitters.

var binarySymbols = map[BinaryOperator]string{
	OpAnd:    "&&",
	OpOr:     "||",
	OpEq:     "==",
	OpNeq:    "!=",
	OpLt:     "<",
	OpLeq:    "<=",
	OpGt:     ">",
	OpGeq:    ">=",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpIntDiv: "/",
	OpRem:    "%",
}

func infix(l string, op BinaryOperator, r string) string {
	return "(" + l + " " + binarySymbols[op] + " " + r + ")"
}

func unsupported(op BinaryOperator, l, r Type) error {
	return ErrUnsupportedOperation.With(
		slog.String("operator", op.String()),
		slog.String("left", l.String()),
		slog.String("right", r.String()),
	)
}

func unsupportedUnary(op UnaryOperator, t Type) error {
	return ErrUnsupportedOperation.With(
		slog.String("operator", op.String()),
		slog.String("operand", t.String()),
	)
}

// emitLogical uses native operators for two Boolean operands. Otherwise the
// result is one of the operand values, selected by the truth of the left
// one. The conditional form names the left operand twice, so it is only used
// when the left operand is a name or a literal; any other left operand is
// passed once to the object model's and/or.
func emitLogical(tr *translator, op BinaryOperator, l, r operand) (string, error) {
	if l.typ == TypeBoolean && r.typ == TypeBoolean {
		return infix(l.src, op, r.src), nil
	}

	if !repeatable(l.expr) {
		fn := logicalOr
		if op == OpAnd {
			fn = logicalAnd
		}

		return coerceSource(fn+"("+l.src+", "+r.src+")", TypeUnknown, sameOrUnknown(l.typ, r.typ))
	}

	cond, err := tr.coerce(l, TypeBoolean)
	if err != nil {
		return "", err
	}

	if op == OpAnd {
		return "(" + cond + " ? " + r.src + " : " + l.src + ")", nil
	}

	return "(" + cond + " ? " + l.src + " : " + r.src + ")", nil
}

// repeatable reports whether the source of e may appear more than once in
// generated code: reading it again has no effect and yields the same value.
func repeatable(e Expr) bool {
	switch e.(type) {
	case *Identifier, *StringLit, *NumberLit, *BooleanLit, *NullLit:
		return true
	}

	return false
}

func emitConcat(tr *translator, op BinaryOperator, l, r operand) (string, error) {
	ls, err := tr.coerce(l, TypeText)
	if err != nil {
		return "", unsupported(op, l.typ, r.typ)
	}

	rs, err := tr.coerce(r, TypeText)
	if err != nil {
		return "", unsupported(op, l.typ, r.typ)
	}

	return "(" + ls + " + " + rs + ")", nil
}

func emitEquality(tr *translator, op BinaryOperator, l, r operand) (string, error) {
	native := (l.typ.IsNumeric() && r.typ.IsNumeric()) ||
		(l.typ == TypeBoolean && r.typ == TypeBoolean)

	if native {
		ls, rs, err := tr.promote(op, l, r)
		if err != nil {
			return "", err
		}

		return infix(ls, op, rs), nil
	}

	call := strictEquals + "(" + l.src + ", " + r.src + ")"
	if op == OpNeq {
		return "(!" + call + ")", nil
	}

	return call, nil
}

func emitComparison(tr *translator, op BinaryOperator, l, r operand) (string, error) {
	textual := (l.typ == TypeText && (r.typ == TypeText || r.typ == TypeUnknown)) ||
		(r.typ == TypeText && l.typ == TypeUnknown)

	if textual {
		ls, err := tr.coerce(l, TypeText)
		if err != nil {
			return "", err
		}

		rs, err := tr.coerce(r, TypeText)
		if err != nil {
			return "", err
		}

		return "(" + ls + ".compareTo(" + rs + ") " + binarySymbols[op] + " 0)", nil
	}

	if !numericCapable(l.typ) || !numericCapable(r.typ) {
		return "", unsupported(op, l.typ, r.typ)
	}

	ls, rs, err := tr.promote(op, l, r)
	if err != nil {
		return "", err
	}

	return infix(ls, op, rs), nil
}

func emitAdd(tr *translator, op BinaryOperator, l, r operand) (string, error) {
	if l.typ == TypeText || r.typ == TypeText {
		return emitConcat(tr, op, l, r)
	}

	return emitArithmetic(tr, op, l, r)
}

func emitArithmetic(tr *translator, op BinaryOperator, l, r operand) (string, error) {
	if !numericCapable(l.typ) || !numericCapable(r.typ) {
		return "", unsupported(op, l.typ, r.typ)
	}

	var to Type

	switch op {
	case OpDiv:
		to = TypeFloat
	case OpIntDiv, OpRem:
		to = TypeInteger
	default:
		to = numericResult(l.typ, r.typ)
	}

	ls, err := tr.coerce(l, to)
	if err != nil {
		return "", unsupported(op, l.typ, r.typ)
	}

	rs, err := tr.coerce(r, to)
	if err != nil {
		return "", unsupported(op, l.typ, r.typ)
	}

	return infix(ls, op, rs), nil
}

func emitIn(tr *translator, _ BinaryOperator, l, r operand) (string, error) {
	coll, err := tr.collection(r)
	if err != nil {
		return "", err
	}

	return coll + ".contains(" + l.src + ")", nil
}

func emitNot(tr *translator, op UnaryOperator, x operand) (string, error) {
	s, err := tr.coerce(x, TypeBoolean)
	if err != nil {
		return "", unsupportedUnary(op, x.typ)
	}

	return "(!" + s + ")", nil
}

func emitNeg(tr *translator, op UnaryOperator, x operand) (string, error) {
	if !numericCapable(x.typ) {
		return "", unsupportedUnary(op, x.typ)
	}

	s, err := tr.coerce(x, negResult(x.typ))
	if err != nil {
		return "", unsupportedUnary(op, x.typ)
	}

	return "(-" + s + ")", nil
}

func emitLength(tr *translator, _ UnaryOperator, x operand) (string, error) {
	coll, err := tr.collection(x)
	if err != nil {
		return "", err
	}

	return coll + ".size()", nil
}

func emitIsWhitespace(tr *translator, op UnaryOperator, x operand) (string, error) {
	s, err := tr.coerce(x, TypeText)
	if err != nil {
		return "", unsupportedUnary(op, x.typ)
	}

	return s + ".trim().isEmpty()", nil
}
