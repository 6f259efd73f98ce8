package lang

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

// quoteText returns s as a double-quoted target string literal.
//
// Printable ASCII is kept as-is. Control characters and everything outside
// ASCII are written as \uXXXX escapes, with characters above the Basic
// Multilingual Plane split into surrogate pairs.
func quoteText(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r < 0x7f:
				b.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		}
	}

	b.WriteByte('"')

	return b.String()
}

// integerLiteral returns n as a target integer literal. Values outside the
// 32-bit range carry the long suffix.
func integerLiteral(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < math.MinInt32 || n > math.MaxInt32 {
		s += "L"
	}

	return s
}

// floatLiteral returns f as a target floating-point literal.
func floatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "Double.NaN"
	case math.IsInf(f, 1):
		return "Double.POSITIVE_INFINITY"
	case math.IsInf(f, -1):
		return "Double.NEGATIVE_INFINITY"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// numberLiteral returns the target literal of a numeric node, honoring its
// inferred type.
func numberLiteral(n *NumberLit) string {
	if !n.IsFloat {
		return integerLiteral(n.Int)
	}

	if n.IsIntegral() {
		return integerLiteral(int64(n.Float))
	}

	return floatLiteral(n.Float)
}
