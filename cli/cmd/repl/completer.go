package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "let", "end", "reset", "clear", "quit"}

// isWordBoundary reports whether r delimits words for completion: whitespace
// and the operator and punctuation characters of the expression language.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// inString reports whether offset lies inside a string literal of input.
func inString(input string, offset int) bool {
	var quote rune

	escaped := false

	for _, r := range input[:offset] {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		}
	}

	return quote != 0
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first, with the candidate list and the word boundaries.
// An empty word, or one inside a string literal, has no matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	switch {
	case m.mode == modeCtrl:
		if strings.TrimSpace(input[:wordStart]) != "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands

	case inString(input, wordStart):
		return nil, nil, wordStart, wordEnd

	default:
		candidates = m.session.candidates()
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar lays the matches out on one line of at most width
// cells. The candidate selected by tabbing is shown in the selected style, and
// the candidates that do not fit are replaced by a trailing ellipsis.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabbing bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	more := candidateSep + hintStyle.Render(candidateMore)
	reserve := lipgloss.Width(more)
	parts := make([]string, 0, len(matches))
	used := 0

	for i, match := range matches {
		cand := renderCandidate(match, tabbing && i == suggIdx)

		w := lipgloss.Width(cand)
		if i > 0 {
			w += lipgloss.Width(candidateSep)

			if used+w+reserve > width {
				return strings.Join(parts, candidateSep) + more
			}
		}

		parts = append(parts, cand)
		used += w
	}

	return strings.Join(parts, candidateSep)
}

// renderCandidate styles one candidate, emphasizing the runes the fuzzy
// match selected.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, mark := suggestionStyle, matchStyle
	if selected {
		base, mark = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		style := base
		if matched[i] {
			style = mark
		}

		b.WriteString(style.Render(string(r)))
	}

	if isFunction(match.Str) {
		b.WriteString(base.Render(callSuffix))
	}

	return b.String()
}
