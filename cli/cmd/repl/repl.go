package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/htlc/log"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help              Print this cruft
  vars              List the variables declared so far
  let NAME = EXPR   Declare a local variable typed by EXPR
  end               End the innermost local variable
  reset             Discard every variable
  clear             Clear screen
  quit              Exit REPL

Usage:
  Type an expression to translate it and print its inferred type
  Unknown names are bound as external variables of the render context
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	typeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))

	matchStyle         = suggestionStyle.Bold(true)
	selectedMatchStyle = selectedStyle.Bold(true)
)

// Completion bar layout. Call names are listed with callSuffix.
const (
	candidateSep  = "  "
	candidateMore = "..."
	callSuffix    = "()"
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and input
// styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// formatResult formats a translated expression with its inferred type.
func formatResult(typ fmt.Stringer, src string) string {
	return typeStyle.Render(typ.String()) + " " + resultStyle.Render(src)
}

// snapshot is an input line with its cursor, saved so an interaction can
// put it back.
type snapshot struct {
	mode   inputMode
	text   string
	cursor int
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *session
	logger     log.Logger
	history    *History
	historyIdx int
	matches    fuzzy.Matches // current fuzzy match results
	candidates []string      // backing candidate list
	wordStart  int           // byte offset of current word start
	wordEnd    int           // byte offset of current word end
	suggIdx    int           // selected candidate index
	width      int           // terminal width for ellipsization
	quitting   bool
	mode       inputMode

	tabbing   bool     // cycling candidates with Tab
	preTab    snapshot // input before cycling began
	recalling bool     // walking command history with Alt+Up/Down
	preRecall snapshot // input before the walk began

	// stash holds the input each mode had when it was last left.
	stash [2]snapshot
}

// save returns the current input as a snapshot.
func (m *model) save() snapshot {
	return snapshot{mode: m.mode, text: m.input.Value(), cursor: m.input.Position()}
}

// restore puts the text and cursor of s back into the input.
func (m *model) restore(s snapshot) {
	m.input.SetValue(s.text)
	m.input.SetCursor(s.cursor)
}

// Run starts the REPL for a unit with the given parameters. History is kept
// in cacheDir when it is not empty.
func Run(
	ctx context.Context,
	params []string,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Any("params", params),
	)

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		logger.WarnContext(
			ctx,
			"could not load history",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, newSession(params), history, logger)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	sess *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    sess,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		pos := m.historyIdx + 1
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(pos)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		var hint string
		if m.mode == modeEval {
			hint = "Type an expression or press Esc for commands"
		} else {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabbing, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabbing = false
		m.recalling = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabbing || len(m.matches) == 0 {
			m.recalling = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabbing = false
		m.recalling = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(+1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp, tea.KeyDown:
		step := +1
		if msg.Type == tea.KeyUp {
			step = -1
		}

		if msg.Alt {
			return m.recallCommand(step)
		}

		return m.recall(step)

	case tea.KeyShiftUp:
		return m.recallInMode(-1)

	case tea.KeyShiftDown:
		return m.recallInMode(+1)

	case tea.KeyEsc:
		if m.tabbing {
			m.tabbing = false
			m.restore(m.preTab)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.recalling {
			m.recalling = false
		}

		return m.toggleMode()

	case tea.KeyRunes:
		// Check for space as "breaking" key while tab-cycling.
		if m.tabbing && msg.String() == " " {
			m.tabbing = false
		}

		var cmd tea.Cmd

		// Reset history index when typing
		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabbing = false
	m.recalling = false
	// Reset history index when typing
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the highlighted candidate by step, wrapping at either end. The
// first press starts at the first candidate, or the last when stepping back.
// A sole candidate is confirmed immediately.
func (m model) cycle(step int) (model, tea.Cmd) {
	n := len(m.matches)

	switch {
	case n == 0:
		return m, nil

	case n == 1:
		confirm(&m, m.matches[0].Str)

		return m, nil

	case m.tabbing:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabbing = true
		m.preTab = m.save()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// confirm completes the current word with candidate and ends tab cycling.
func confirm(m *model, candidate string) {
	replaceCurrentWord(m, candidate)

	m.tabbing = false
	m.suggIdx = -1
	m.matches = nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly one
// candidate remains and the typed word already equals it. Deletions and
// cursor movement pass false.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabbing {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if candidate := m.matches[0].Str; m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		confirm(m, candidate)
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.stash = [2]snapshot{}
	m.input.SetValue("")

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl command",
			slog.String("input", input),
		)

		return m.executeCommand(input)
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.String("input", input),
	)

	return m, tea.Sequence(tea.Println(formatCommand(input)), tea.Println(m.evaluate(input)))
}

// evaluate translates input and returns the styled result line.
func (m model) evaluate(input string) string {
	typ, src, err := m.session.eval(input)
	if err != nil {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval result",
			slog.Any("error", err),
		)

		return errorStyle.Render("error: " + err.Error())
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval result",
		slog.String("type", typ.String()),
		slog.String("source", src),
	)

	return formatResult(typ, src)
}

// command runs the control command in input and returns the text to print.
// The boolean result reports whether the REPL should exit.
func (m model) command(input string) (string, bool) {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.String("args", args),
	)

	switch cmd {
	case "q", "quit", "exit":
		return "", true

	case "h", "help":
		return helpMessage(), false

	case "v", "vars":
		return m.session.vars(), false

	case "l", "let":
		name, text, ok := parseLet(args)
		if !ok {
			return errorStyle.Render(ErrUsage.Error() + ": let NAME = EXPR"), false
		}

		decl, err := m.session.let(name, text)
		if err != nil {
			return errorStyle.Render("error: " + err.Error()), false
		}

		return resultStyle.Render(decl), false

	case "e", "end":
		name, err := m.session.end()
		if err != nil {
			return errorStyle.Render("error: " + err.Error()), false
		}

		return hintStyle.Render("ended " + name), false

	case "r", "reset":
		m.session.reset()

		return hintStyle.Render("variables discarded"), false

	default:
		return errorStyle.Render("Unknown command: " + cmd + " (try 'help')"), false
	}
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	echoCmd := tea.Println(formatCtrlCommand(input))

	if cmd, _, _ := strings.Cut(input, " "); cmd == "c" || cmd == "clear" {
		return m, tea.ClearScreen
	}

	out, quit := m.command(input)
	if quit {
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)
	}

	return m, tea.Sequence(echoCmd, tea.Println(out))
}

// historyFilter selects the history entries a navigation key visits.
type historyFilter func(HistoryEntry) bool

func anyMode(HistoryEntry) bool { return true }

func inMode(mode inputMode) historyFilter {
	return func(e HistoryEntry) bool { return e.Mode == mode }
}

// seekHistory moves the history cursor by step to the nearest entry accepted
// by keep and loads it into the input, switching to the entry's mode when
// follow is set. It reports false when no such entry remains.
func (m *model) seekHistory(step int, keep historyFilter, follow bool) bool {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil || !keep(entry) {
			continue
		}

		m.historyIdx = i

		if follow && entry.Mode != m.mode {
			*m, _ = m.switchToMode(entry.Mode)
		}

		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(m, false)

		return true
	}

	return false
}

// leaveHistory parks the cursor past the newest entry with an empty input.
func (m *model) leaveHistory() {
	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(m, false)
}

// recall visits entries of either mode, following each entry's mode.
func (m model) recall(step int) (model, tea.Cmd) {
	if !m.seekHistory(step, anyMode, true) && step > 0 {
		m.leaveHistory()
	}

	return m, nil
}

// recallInMode visits only the entries of the current mode.
func (m model) recallInMode(step int) (model, tea.Cmd) {
	if !m.seekHistory(step, inMode(m.mode), false) &&
		step > 0 && m.historyIdx < m.history.Len() {
		m.leaveHistory()
	}

	return m, nil
}

// recallCommand visits control-mode entries from either mode. Running off
// either end restores the mode and input in effect before the first press.
func (m model) recallCommand(step int) (model, tea.Cmd) {
	if !m.recalling {
		m.recalling = true
		m.preRecall = m.save()

		if m.mode != modeCtrl {
			m, _ = m.switchToMode(modeCtrl)
		}
	}

	if m.seekHistory(step, inMode(modeCtrl), false) {
		return m, nil
	}

	m.recalling = false

	if m.preRecall.mode != m.mode {
		m, _ = m.switchToMode(m.preRecall.mode)
	}

	m.restore(m.preRecall)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}

// toggleMode switches between eval and control modes, preserving the input
// of each.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, stashing the input of the
// mode being left and restoring the input of the mode entered.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	m.stash[m.mode] = m.save()
	m.mode = mode

	m.input.Prompt = promptStyle.Render(evalPrompt)
	if mode == modeCtrl {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.restore(m.stash[mode])
	refreshMatches(&m, false)

	return m, nil
}
