package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/cypherpad/internal/bolt"
	"github.com/kobzarvs/cypherpad/internal/config"
	"github.com/kobzarvs/cypherpad/internal/editor"
	"github.com/kobzarvs/cypherpad/internal/history"
	"github.com/kobzarvs/cypherpad/internal/logger"
	"github.com/kobzarvs/cypherpad/internal/session"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// Options carries command line overrides. Nil pointers keep the config
// file value.
type Options struct {
	URI            string
	Username       string
	Password       string
	Database       string
	MultiStatement *bool
	Debug          bool
}

// App is the top-level runtime for cypherpad.
type App struct {
	opts Options
}

func New(opts Options) *App {
	return &App{opts: opts}
}

// applyOverrides merges command line flags over the loaded config.
func (a *App) applyOverrides(cfg *config.Config) {
	if a.opts.URI != "" {
		cfg.Connection.URI = a.opts.URI
	}
	if a.opts.Username != "" {
		cfg.Connection.Username = a.opts.Username
	}
	if a.opts.Password != "" {
		cfg.Connection.Password = a.opts.Password
	}
	if a.opts.Database != "" {
		cfg.Connection.Database = a.opts.Database
	}
	if a.opts.MultiStatement != nil {
		cfg.Editor.MultiStatement = *a.opts.MultiStatement
	}
}

func (a *App) Run() error {
	runtime.LockOSThread()
	if err := logger.Init(a.opts.Debug); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.applyOverrides(&cfg)

	histDir, err := config.HistoryDir()
	if err != nil {
		return err
	}
	store, err := history.Open(histDir, cfg.Editor.HistoryLimit)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := openSession()
	if sess != nil && cfg.Connection.Database == "" {
		cfg.Connection.Database = sess.State().Database
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	s.EnablePaste()
	defer s.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := bolt.New(bolt.Config{
		URI:      cfg.Connection.URI,
		Username: cfg.Connection.Username,
		Password: cfg.Connection.Password,
		Database: cfg.Connection.Database,
	})
	defer func() {
		closeCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = runner.Close(closeCtx)
	}()

	repaint := func() { _ = s.PostEvent(tcell.NewEventInterrupt(nil)) }
	ed := editor.New(editor.Options{
		Config:   cfg,
		Prober:   runner,
		OnUpdate: repaint,
		Context:  ctx,
	})
	defer ed.Close()
	ed.Focus()

	sh := newShell(shellOptions{
		Editor:  ed,
		Runner:  runner,
		Store:   store,
		Config:  cfg,
		Repaint: repaint,
		Context: ctx,
	})
	if err := sh.loadHistory(); err != nil {
		logger.Warn("load history failed", "err", err)
	}
	if sess != nil {
		restoreDraft(ed, sess)
		defer saveSession(ed, runner, sess)
	}
	sh.connect(runner)

	for {
		sh.render(s)
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			if sh.collectPaste(ev) {
				continue
			}
			if ed.HandleKey(ev) || sh.quitRequested() {
				return nil
			}
		case *tcell.EventPaste:
			if ev.Start() {
				sh.beginPaste()
			} else {
				ed.HandlePaste(sh.endPaste())
			}
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
		case nil:
			return nil
		}
	}
}

func openSession() *session.Manager {
	path, err := session.DefaultPath()
	if err != nil {
		logger.Warn("session path unavailable", "err", err)
		return nil
	}
	m, err := session.NewManager(path)
	if err != nil {
		logger.Warn("open session failed", "path", path, "err", err)
		return nil
	}
	return m
}

// restoreDraft puts the unsent buffer of the previous run back and keeps
// the session in step with later edits.
func restoreDraft(ed *editor.Editor, sess *session.Manager) {
	st := sess.State()
	if st.Draft != "" {
		ed.SetValue(st.Draft)
		ed.SetPosition(statement.Position{Line: st.CursorLine, Column: st.CursorColumn})
	}
	ed.OnChange(func(text string) {
		pos := ed.Position()
		sess.SetDraft(text, pos.Line, pos.Column)
	})
}

func saveSession(ed *editor.Editor, runner *bolt.Runner, sess *session.Manager) {
	pos := ed.Position()
	sess.SetDraft(ed.Value(), pos.Line, pos.Column)
	sess.SetDatabase(runner.Database())
	if err := sess.Stop(); err != nil {
		logger.Warn("save session failed", "err", err)
	}
}
