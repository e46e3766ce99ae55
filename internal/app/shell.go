package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/cypherpad/internal/bolt"
	"github.com/kobzarvs/cypherpad/internal/config"
	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/editor"
	"github.com/kobzarvs/cypherpad/internal/logger"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// queryRunner executes queries typed by the user.
type queryRunner interface {
	Run(ctx context.Context, query string) (bolt.Summary, error)
	Database() string
	SetDatabase(name string)
}

// historyStore persists executed queries.
type historyStore interface {
	Append(query string) error
	Recent(limit int) ([]string, error)
	Len() (int, error)
}

type shellOptions struct {
	Editor  *editor.Editor
	Runner  queryRunner
	Store   historyStore
	Config  config.Config
	Repaint func()
	Context context.Context
}

// shell is the terminal host around the editor: client commands, query
// execution and the chrome drawn around the input.
type shell struct {
	ed      *editor.Editor
	runner  queryRunner
	store   historyStore
	uri     string
	limit   int
	repaint func()
	ctx     context.Context

	styleHeader tcell.Style
	styleStatus tcell.Style
	styleError  tcell.Style

	mu        sync.Mutex
	status    string
	statusErr bool
	quit      bool
	running   sync.WaitGroup

	pasting bool
	paste   []rune
}

func newShell(opts shellOptions) *shell {
	cfg := opts.Config
	repaint := opts.Repaint
	if repaint == nil {
		repaint = func() {}
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	statusFg := editor.ParseColor(cfg.Theme.StatuslineForeground, tcell.ColorBlack)
	statusBg := editor.ParseColor(cfg.Theme.StatuslineBackground, tcell.ColorGray)
	errorFg := editor.ParseColor(cfg.Theme.ErrorForeground, tcell.ColorRed)
	sh := &shell{
		ed:          opts.Editor,
		runner:      opts.Runner,
		store:       opts.Store,
		uri:         cfg.Connection.URI,
		limit:       cfg.Editor.HistoryLimit,
		repaint:     repaint,
		ctx:         ctx,
		styleHeader: tcell.StyleDefault.Foreground(statusFg).Background(statusBg).Bold(true),
		styleStatus: tcell.StyleDefault.Foreground(statusFg).Background(statusBg),
		styleError:  tcell.StyleDefault.Foreground(errorFg).Background(statusBg),
	}
	sh.ed.OnExecute(sh.execute)
	return sh
}

func (sh *shell) loadHistory() error {
	entries, err := sh.store.Recent(sh.limit)
	if err != nil {
		return err
	}
	sh.ed.SetHistory(entries)
	return nil
}

// connect dials the server in the background; the editor is usable
// meanwhile and probes fail quietly until the driver is ready.
func (sh *shell) connect(r *bolt.Runner) {
	sh.setStatus("connecting to "+sh.uri+"…", false)
	go func() {
		ctx, cancel := context.WithTimeout(sh.ctx, 15*time.Second)
		defer cancel()
		if err := r.Connect(ctx); err != nil {
			logger.Warn("connect failed", "uri", sh.uri, "err", err)
			sh.setStatus(err.Error(), true)
		} else {
			sh.setStatus("connected to "+sh.uri, false)
			sh.ed.Refresh()
		}
		sh.repaint()
	}()
}

func (sh *shell) setStatus(msg string, isErr bool) {
	sh.mu.Lock()
	sh.status = msg
	sh.statusErr = isErr
	sh.mu.Unlock()
}

func (sh *shell) Status() (string, bool) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.status, sh.statusErr
}

func (sh *shell) quitRequested() bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.quit
}

// wait blocks until every query started by execute has finished.
func (sh *shell) wait() {
	sh.running.Wait()
}

// execute handles a submitted buffer: client commands run locally,
// everything else goes to the server.
func (sh *shell) execute(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if statement.Classify(trimmed) == statement.KindCommand {
		sh.runCommand(trimmed)
		sh.ed.SetValue("")
		return
	}

	queries := []string{trimmed}
	if sh.ed.MultiStatement() {
		queries = queries[:0]
		for _, st := range statement.Parse(trimmed) {
			if statement.Classify(st.Text) == statement.KindCommand {
				sh.runCommand(st.Text)
				continue
			}
			queries = append(queries, st.Text)
		}
	}
	sh.ed.SetValue("")
	if len(queries) == 0 {
		return
	}

	if err := sh.store.Append(trimmed); err != nil {
		logger.Warn("append history failed", "err", err)
	}
	if err := sh.loadHistory(); err != nil {
		logger.Warn("reload history failed", "err", err)
	}
	sh.setStatus("running…", false)
	sh.running.Add(1)
	go func() {
		defer sh.running.Done()
		defer sh.repaint()
		var last bolt.Summary
		for i, q := range queries {
			sum, err := sh.runner.Run(sh.ctx, q)
			if err != nil {
				logger.Debug("query failed", "query", q, "err", err)
				if len(queries) > 1 {
					sh.setStatus(fmt.Sprintf("statement %d: %v", i+1, err), true)
				} else {
					sh.setStatus(err.Error(), true)
				}
				return
			}
			last = sum
		}
		sh.setStatus(formatSummary(last, len(queries)), false)
	}()
}

func (sh *shell) runCommand(cmd string) {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(cmd, statement.CommandSigil), ";"))
	if len(fields) == 0 {
		sh.setStatus("empty command", true)
		return
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "clear":
		sh.setStatus("", false)
	case "use":
		if len(args) != 1 {
			sh.setStatus("usage: :use <database>", true)
			return
		}
		sh.runner.SetDatabase(args[0])
		sh.setStatus("using database "+args[0], false)
	case "history":
		n, err := sh.store.Len()
		if err != nil {
			sh.setStatus(err.Error(), true)
			return
		}
		sh.setStatus(fmt.Sprintf("%d queries in history", n), false)
	case "multi":
		on := !sh.ed.MultiStatement()
		if len(args) == 1 {
			on = args[0] == "on" || args[0] == "true"
		}
		sh.ed.SetMultiStatement(on)
		if on {
			sh.setStatus("multi-statement mode on", false)
		} else {
			sh.setStatus("multi-statement mode off", false)
		}
	case "quit", "exit", "q":
		sh.mu.Lock()
		sh.quit = true
		sh.mu.Unlock()
	default:
		sh.setStatus("unknown command :"+name, true)
	}
}

func formatSummary(sum bolt.Summary, statements int) string {
	var b strings.Builder
	if statements > 1 {
		fmt.Fprintf(&b, "%d statements, last: ", statements)
	}
	switch sum.Records {
	case 1:
		b.WriteString("1 record")
	default:
		fmt.Fprintf(&b, "%d records", sum.Records)
	}
	if sum.Updates != "" {
		b.WriteString(", " + sum.Updates)
	}
	if sum.Elapsed > 0 {
		fmt.Fprintf(&b, " in %s", sum.Elapsed.Round(time.Millisecond))
	}
	if n := len(sum.Notifications); n > 0 {
		fmt.Fprintf(&b, " (%d notifications)", n)
	}
	return b.String()
}

func (sh *shell) beginPaste() {
	sh.pasting = true
	sh.paste = sh.paste[:0]
}

func (sh *shell) endPaste() string {
	sh.pasting = false
	text := string(sh.paste)
	sh.paste = sh.paste[:0]
	return text
}

// collectPaste buffers keys that arrive inside a bracketed paste.
func (sh *shell) collectPaste(ev *tcell.EventKey) bool {
	if !sh.pasting {
		return false
	}
	switch ev.Key() {
	case tcell.KeyRune:
		sh.paste = append(sh.paste, ev.Rune())
	case tcell.KeyEnter, tcell.KeyCtrlJ:
		sh.paste = append(sh.paste, '\n')
	case tcell.KeyTab:
		sh.paste = append(sh.paste, '\t')
	}
	return true
}

// render lays out header, editor, diagnostic detail and status line.
func (sh *shell) render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	s.Clear()

	db := sh.runner.Database()
	if db == "" {
		db = "default"
	}
	header := " cypherpad  " + sh.uri + "  db:" + db
	if sh.ed.MultiStatement() {
		header += "  [multi]"
	}
	drawLine(s, 0, w, header, sh.styleHeader)

	container := h - 3
	if container < 1 {
		container = 1
	}
	sh.ed.SetContainerHeight(container)
	height := sh.ed.Resize(false)
	sh.ed.Render(s, 1, w)

	if y := 1 + height; y < h-1 {
		drawLine(s, y, w, sh.diagnosticLine(), sh.styleError)
	}

	status, isErr := sh.Status()
	style := sh.styleStatus
	if isErr {
		style = sh.styleError
	}
	drawLine(s, h-1, w, " "+status, style)
	s.Show()
}

// diagnosticLine describes the marker under the cursor, or counts markers.
func (sh *shell) diagnosticLine() string {
	if at := sh.ed.DiagnosticsAtCursor(); len(at) > 0 {
		d := at[0]
		msg := strings.ReplaceAll(strings.TrimSpace(d.Message), "\n", ": ")
		return fmt.Sprintf(" %s %d:%d %s", d.Severity, d.Start.Line, d.Start.Column+1, msg)
	}
	all := sh.ed.Diagnostics()
	if len(all) == 0 {
		return ""
	}
	var errs, warns int
	for _, d := range all {
		if d.Severity == diag.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return fmt.Sprintf(" %d errors, %d warnings", errs, warns)
}

func drawLine(s tcell.Screen, y, w int, text string, style tcell.Style) {
	x := 0
	for _, r := range text {
		if x >= w {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
	for ; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}
