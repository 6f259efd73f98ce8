package lang

import "log/slog"

// coerceSource returns source that converts src, a value of type from, into a
// value of type to.
//
// Integer and Float convert into each other with native casts. Values of
// unknown type go through the object model, which decides at render time.
// Any other pair has no conversion and yields ErrUnsupportedOperation.
func coerceSource(src string, from, to Type) (string, error) {
	if from == to || to == TypeUnknown {
		return src, nil
	}

	switch to.Kind() {
	case KindText:
		return toStringCall + "(" + src + ")", nil

	case KindBoolean:
		return toBooleanCall + "(" + src + ")", nil

	case KindFloat:
		switch from.Kind() {
		case KindInteger:
			return "((double) " + src + ")", nil
		case KindUnknown, KindText:
			return toNumberCall + "(" + src + ").doubleValue()", nil
		}

	case KindInteger:
		switch from.Kind() {
		case KindFloat:
			return "((long) " + src + ")", nil
		case KindUnknown, KindText:
			return toNumberCall + "(" + src + ").longValue()", nil
		}

	case KindMap, KindNamed:
		if from == TypeUnknown {
			return "((" + to.TargetName() + ") " + src + ")", nil
		}
	}

	return "", ErrUnsupportedOperation.With(
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

func (*translator) coerce(o operand, to Type) (string, error) {
	return coerceSource(o.src, o.typ, to)
}

// promote brings two operands to one comparable representation. Booleans
// compare natively; numbers meet at Integer when both are Integer and at
// Float otherwise.
func (tr *translator) promote(
	op BinaryOperator,
	l, r operand,
) (string, string, error) {
	if l.typ == TypeBoolean && r.typ == TypeBoolean {
		return l.src, r.src, nil
	}

	to := numericResult(l.typ, r.typ)

	ls, err := tr.coerce(l, to)
	if err != nil {
		return "", "", unsupported(op, l.typ, r.typ)
	}

	rs, err := tr.coerce(r, to)
	if err != nil {
		return "", "", unsupported(op, l.typ, r.typ)
	}

	return ls, rs, nil
}

// collection returns source evaluating o as a collection. A bare identifier
// shares a lazily populated cache variable with every other coercion of the
// same variable; any other expression is converted on each evaluation.
func (tr *translator) collection(o operand) (string, error) {
	id, ok := o.expr.(*Identifier)
	if !ok {
		return toCollection + "(" + o.src + ")", nil
	}

	v, ok := tr.syms.Lookup(id.Name)
	if !ok {
		return toCollection + "(" + o.src + ")", nil
	}

	cache, err := tr.syms.RequireListCoercion(v)
	if err != nil {
		return "", err
	}

	return "(" + cache + " == " + nullLiteral + " ? (" + cache + " = " +
		toCollection + "(" + o.src + ")) : " + cache + ")", nil
}
