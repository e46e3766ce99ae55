package editor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/cypherpad/internal/analysis"
	"github.com/kobzarvs/cypherpad/internal/buffer"
	"github.com/kobzarvs/cypherpad/internal/config"
	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/history"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// Options wires an Editor to its collaborators.
type Options struct {
	Config config.Config
	// Prober lints statements against the server. Nil disables probing.
	Prober analysis.Prober
	Parser statement.Parser
	// OnUpdate runs when markers change off the UI goroutine.
	OnUpdate func()
	Context  context.Context
}

// Editor is a Cypher input surface: a text buffer with live server-side
// linting, executed-query history and Enter-to-execute dispatch.
type Editor struct {
	buf   *buffer.Buffer
	nav   *history.Navigator
	sched *analysis.Scheduler

	keymap          config.Keymap
	tabWidth        int
	maxHeight       int
	containerHeight int
	height          int
	scroll          int
	multiStatement  atomic.Bool

	mu        sync.Mutex
	focused   bool
	onChange  func(string)
	onExecute func(string)

	styleMain        tcell.Style
	styleGutter      tcell.Style
	styleError       tcell.Style
	styleWarning     tcell.Style
	styleInformation tcell.Style
}

func New(opts Options) *Editor {
	cfg := opts.Config
	keymap := make(config.Keymap, len(cfg.Keymap))
	for k, v := range cfg.Keymap {
		keymap[k] = v
	}
	tabWidth := cfg.Editor.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	maxHeight := cfg.Editor.MaxHeight
	if maxHeight < 1 {
		maxHeight = 1
	}
	mainFg := ParseColor(cfg.Theme.Foreground, tcell.ColorWhite)
	mainBg := ParseColor(cfg.Theme.Background, tcell.ColorBlack)
	gutterFg := ParseColor(cfg.Theme.LineNumberForeground, tcell.ColorGray)
	errorFg := ParseColor(cfg.Theme.ErrorForeground, tcell.ColorRed)
	warningFg := ParseColor(cfg.Theme.WarningForeground, tcell.ColorYellow)
	infoFg := ParseColor(cfg.Theme.InformationForeground, tcell.ColorBlue)

	e := &Editor{
		buf:              buffer.New(""),
		keymap:           keymap,
		tabWidth:         tabWidth,
		maxHeight:        maxHeight,
		height:           1,
		styleMain:        tcell.StyleDefault.Foreground(mainFg).Background(mainBg),
		styleGutter:      tcell.StyleDefault.Foreground(gutterFg).Background(mainBg),
		styleError:       tcell.StyleDefault.Foreground(errorFg).Background(mainBg).Underline(true),
		styleWarning:     tcell.StyleDefault.Foreground(warningFg).Background(mainBg).Underline(true),
		styleInformation: tcell.StyleDefault.Foreground(infoFg).Background(mainBg).Underline(true),
	}
	e.multiStatement.Store(cfg.Editor.MultiStatement)
	e.nav = history.NewNavigator(e.buf, nil)
	e.sched = analysis.New(analysis.Options{
		Parser:         opts.Parser,
		Prober:         opts.Prober,
		Debounce:       cfg.Editor.Debounce(),
		MultiStatement: e.multiStatement.Load,
		Context:        opts.Context,
		OnUpdate:       opts.OnUpdate,
	})
	e.sched.Attach(e.buf)
	e.buf.OnChange(e.contentChanged)
	return e
}

func (e *Editor) contentChanged(text string) {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn(text)
	}
	e.sched.OnBufferChanged(text)
}

func (e *Editor) Value() string {
	return e.buf.Value()
}

// SetValue replaces the content and leaves history browsing.
func (e *Editor) SetValue(text string) {
	e.nav.Reset()
	e.buf.SetValue(text)
}

func (e *Editor) OnChange(fn func(text string)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *Editor) OnExecute(fn func(text string)) {
	e.mu.Lock()
	e.onExecute = fn
	e.mu.Unlock()
}

func (e *Editor) Focus() {
	e.mu.Lock()
	e.focused = true
	e.mu.Unlock()
}

func (e *Editor) Blur() {
	e.mu.Lock()
	e.focused = false
	e.mu.Unlock()
}

func (e *Editor) Focused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

func (e *Editor) Position() statement.Position {
	return e.buf.Position()
}

func (e *Editor) SetPosition(pos statement.Position) {
	e.buf.SetPosition(pos)
}

// SetHistory replaces the executed-query history, most recent first.
func (e *Editor) SetHistory(entries []string) {
	e.nav.SetEntries(entries)
}

func (e *Editor) History() *history.Navigator {
	return e.nav
}

func (e *Editor) SetMultiStatement(on bool) {
	e.multiStatement.Store(on)
	e.Refresh()
}

func (e *Editor) MultiStatement() bool {
	return e.multiStatement.Load()
}

// SetContainerHeight sets the rows available when Resize fills the container.
func (e *Editor) SetContainerHeight(h int) {
	e.containerHeight = h
}

// Resize recomputes the visible height: the line count capped at the
// configured maximum and the container, or the whole container when fill
// is set.
func (e *Editor) Resize(fill bool) int {
	h := e.buf.LineCount()
	if h > e.maxHeight {
		h = e.maxHeight
	}
	if e.containerHeight > 0 && (fill || h > e.containerHeight) {
		h = e.containerHeight
	}
	if h < 1 {
		h = 1
	}
	e.height = h
	return h
}

func (e *Editor) Height() int {
	return e.height
}

// Diagnostics returns the current markers in buffer coordinates.
func (e *Editor) Diagnostics() []diag.Diagnostic {
	return e.buf.Markers()
}

// DiagnosticsAtCursor returns the markers covering the cursor.
func (e *Editor) DiagnosticsAtCursor() []diag.Diagnostic {
	c := e.buf.Cursor()
	return e.buf.MarkersAt(c.Row, c.Col)
}

// Refresh schedules a new analysis pass over the unchanged content.
func (e *Editor) Refresh() {
	e.sched.OnBufferChanged(e.buf.Value())
}

// Flush runs pending analysis immediately.
func (e *Editor) Flush() {
	e.sched.Flush()
}

// Scheduler exposes the analysis scheduler for tests and the host.
func (e *Editor) Scheduler() *analysis.Scheduler {
	return e.sched
}

// Execute hands the current value to the OnExecute callback.
func (e *Editor) Execute() {
	value := e.buf.Value()
	e.nav.Reset()
	e.mu.Lock()
	fn := e.onExecute
	e.mu.Unlock()
	if fn != nil {
		fn(value)
	}
}

// Close detaches the analysis pipeline; pending and in-flight probes no
// longer touch the buffer.
func (e *Editor) Close() {
	e.sched.Detach()
}

// HandleKey applies a key event. It returns true when the user asked to quit.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	key := keyString(ev)
	if key != "" {
		if action, ok := e.keymap[key]; ok {
			return e.execAction(action)
		}
	}
	if ev.Key() == tcell.KeyRune {
		e.buf.InsertRune(ev.Rune())
	}
	return false
}

// HandlePaste inserts pasted text in one change.
func (e *Editor) HandlePaste(text string) {
	e.buf.InsertText(text)
}

func (e *Editor) execAction(action string) bool {
	switch action {
	case "submit":
		if statement.IsMultiLine(e.buf.Value()) {
			e.buf.InsertNewline()
		} else {
			e.Execute()
		}
	case "execute":
		e.Execute()
	case "newline":
		e.buf.InsertNewline()
	case "history_previous":
		if !e.nav.Previous() {
			e.buf.MoveUp()
		}
	case "history_next":
		if !e.nav.Next() {
			e.buf.MoveDown()
		}
	case "move_left":
		e.buf.MoveLeft()
	case "move_right":
		e.buf.MoveRight()
	case "move_up":
		e.buf.MoveUp()
	case "move_down":
		e.buf.MoveDown()
	case "line_start":
		e.buf.MoveLineStart()
	case "line_end":
		e.buf.MoveLineEnd()
	case "backspace":
		e.buf.Backspace()
	case "delete_char":
		e.buf.Delete()
	case "indent":
		e.buf.InsertText(strings.Repeat(" ", e.tabWidth))
	case "clear":
		e.SetValue("")
	case "quit":
		return true
	}
	return false
}
