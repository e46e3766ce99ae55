package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const autosaveInterval = 15 * time.Second

// State is what survives a restart: the unsent draft and where the user was.
type State struct {
	Draft        string    `json:"draft,omitempty"`
	CursorLine   int       `json:"cursor_line,omitempty"`
	CursorColumn int       `json:"cursor_column,omitempty"`
	Database     string    `json:"database,omitempty"`
	LastSaved    time.Time `json:"last_saved"`
}

// Manager handles session persistence
type Manager struct {
	mu       sync.RWMutex
	state    State
	path     string
	dirty    bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewManager loads the session stored at path and starts autosaving.
// A missing or unreadable file starts an empty session.
func NewManager(path string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	m := &Manager{
		path:     path,
		stopChan: make(chan struct{}),
	}
	m.load()
	go m.autosaveLoop()
	return m, nil
}

// DefaultPath is session.json under CYPHERPAD_STATE_HOME, else
// $XDG_STATE_HOME/cypherpad, else ~/.local/state/cypherpad.
func DefaultPath() (string, error) {
	if dir := os.Getenv("CYPHERPAD_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "session.json"), nil
	}
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "cypherpad", "session.json"), nil
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return
	}
	m.state = state
}

// Save persists the session if anything changed since the last save.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	m.state.LastSaved = time.Now()
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return err
	}

	m.dirty = false
	return nil
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SetDraft records the buffer text and cursor.
func (m *Manager) SetDraft(text string, line, column int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Draft == text && m.state.CursorLine == line && m.state.CursorColumn == column {
		return
	}
	m.state.Draft = text
	m.state.CursorLine = line
	m.state.CursorColumn = column
	m.dirty = true
}

// SetDatabase records the database selected with :use.
func (m *Manager) SetDatabase(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Database == name {
		return
	}
	m.state.Database = name
	m.dirty = true
}

func (m *Manager) autosaveLoop() {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.Save()
		case <-m.stopChan:
			return
		}
	}
}

// Stop ends autosaving and writes the final state.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	return m.Save()
}
