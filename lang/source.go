package lang

import (
	"fmt"
	"strings"
)

// indentUnit is the indentation of one block level in generated source.
const indentUnit = "    "

// source accumulates the statements of one unit.
type source struct {
	lines  []string
	indent int
}

// line appends one statement at the current indentation.
func (s *source) line(format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}

	s.lines = append(s.lines, strings.Repeat(indentUnit, s.indent)+text)
}

// open appends a line ending a block header and indents what follows.
func (s *source) open(format string, args ...any) {
	s.line(format, args...)
	s.indent++
}

// close outdents and appends the closing brace of a block.
func (s *source) close() {
	if s.indent > 0 {
		s.indent--
	}

	s.line("}")
}

// String joins the statements, each terminated by a newline.
func (s *source) String() string {
	if len(s.lines) == 0 {
		return ""
	}

	return strings.Join(s.lines, "\n") + "\n"
}

// prepend inserts lines, unindented, before every statement written so far.
func (s *source) prepend(lines ...string) {
	if len(lines) == 0 {
		return
	}

	s.lines = append(append(make([]string, 0, len(lines)+len(s.lines)), lines...), s.lines...)
}
