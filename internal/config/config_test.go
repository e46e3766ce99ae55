package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestConfigDirEnv(t *testing.T) {
	t.Setenv("CYPHERPAD_CONFIG_HOME", "/tmp/cypherpad-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/cypherpad-config" {
		t.Fatalf("ConfigDir = %q, want %q", dir, "/tmp/cypherpad-config")
	}

	t.Setenv("CYPHERPAD_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/xdg/cypherpad" {
		t.Fatalf("ConfigDir = %q, want %q", dir, "/tmp/xdg/cypherpad")
	}
	hist, err := HistoryDir()
	if err != nil || hist != dir {
		t.Fatalf("HistoryDir = %q, %v; want %q", hist, err, dir)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("CYPHERPAD_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Editor.Debounce() != 300*time.Millisecond {
		t.Fatalf("Debounce = %v, want 300ms", cfg.Editor.Debounce())
	}
	if cfg.Editor.MultiStatement {
		t.Fatalf("MultiStatement = true, want false")
	}
	if cfg.Connection.URI != "neo4j://localhost:7687" {
		t.Fatalf("URI = %q", cfg.Connection.URI)
	}
	if cfg.Keymap["enter"] != "submit" || cfg.Keymap["alt+enter"] != "execute" {
		t.Fatalf("keymap enter=%q alt+enter=%q", cfg.Keymap["enter"], cfg.Keymap["alt+enter"])
	}
}

func TestLoadWithThemeAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CYPHERPAD_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "theme", "test.toml"), `
foreground = "#111111"
background = "#222222"
error-foreground = "#333333"
`)

	writeFile(t, filepath.Join(dir, "config.toml"), `
[editor]
debounce-ms = 150
multi-statement = true
max-height = 4

[connection]
uri = "bolt://db:7687"
database = "movies"

[theme]
theme = "test"
warning-foreground = "#123456"

[keymap]
"ctrl+x" = "execute"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Editor.DebounceMs != 150 {
		t.Fatalf("DebounceMs = %d, want 150", cfg.Editor.DebounceMs)
	}
	if !cfg.Editor.MultiStatement {
		t.Fatalf("MultiStatement = false, want true")
	}
	if cfg.Editor.MaxHeight != 4 {
		t.Fatalf("MaxHeight = %d, want 4", cfg.Editor.MaxHeight)
	}
	if cfg.Editor.HistoryLimit != 1000 {
		t.Fatalf("HistoryLimit = %d, want 1000", cfg.Editor.HistoryLimit)
	}
	if cfg.Connection.URI != "bolt://db:7687" {
		t.Fatalf("URI = %q, want %q", cfg.Connection.URI, "bolt://db:7687")
	}
	if cfg.Connection.Username != "neo4j" {
		t.Fatalf("Username = %q, want %q", cfg.Connection.Username, "neo4j")
	}
	if cfg.Connection.Database != "movies" {
		t.Fatalf("Database = %q, want %q", cfg.Connection.Database, "movies")
	}
	if cfg.Theme.Foreground != "#111111" {
		t.Fatalf("Foreground = %q, want %q", cfg.Theme.Foreground, "#111111")
	}
	if cfg.Theme.ErrorForeground != "#333333" {
		t.Fatalf("ErrorForeground = %q, want %q", cfg.Theme.ErrorForeground, "#333333")
	}
	if cfg.Theme.WarningForeground != "#123456" {
		t.Fatalf("WarningForeground = %q, want %q", cfg.Theme.WarningForeground, "#123456")
	}
	if cfg.Keymap["ctrl+x"] != "execute" {
		t.Fatalf("keymap ctrl+x = %q, want %q", cfg.Keymap["ctrl+x"], "execute")
	}
	if cfg.Keymap["enter"] != "submit" {
		t.Fatalf("keymap enter = %q, want %q", cfg.Keymap["enter"], "submit")
	}
}

func TestLoadExplicitFalseMultiStatement(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CYPHERPAD_CONFIG_HOME", dir)
	writeFile(t, filepath.Join(dir, "config.toml"), "[editor]\nmulti-statement = false\n")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Editor.MultiStatement {
		t.Fatalf("MultiStatement = true, want false")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CYPHERPAD_CONFIG_HOME", dir)
	writeFile(t, filepath.Join(dir, "config.toml"), "[editor\n")
	if _, err := Load(); err == nil {
		t.Fatalf("Load error = nil, want parse error")
	}
}

func TestLoadThemeWrapped(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CYPHERPAD_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "theme", "wrapped.toml"), `
[theme]
foreground = "#aaaaaa"
background = "#bbbbbb"
`)

	theme, err := LoadTheme("wrapped")
	if err != nil {
		t.Fatalf("LoadTheme error: %v", err)
	}
	if theme.Foreground != "#aaaaaa" {
		t.Fatalf("Foreground = %q, want %q", theme.Foreground, "#aaaaaa")
	}
	if theme.Background != "#bbbbbb" {
		t.Fatalf("Background = %q, want %q", theme.Background, "#bbbbbb")
	}
}
