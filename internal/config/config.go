package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type EditorOptions struct {
	DebounceMs     int  `toml:"debounce-ms"`
	MultiStatement bool `toml:"multi-statement"`
	MaxHeight      int  `toml:"max-height"`
	HistoryLimit   int  `toml:"history-limit"`
	TabWidth       int  `toml:"tab-width"`
}

// Debounce returns the analysis quiescence window.
func (o EditorOptions) Debounce() time.Duration {
	return time.Duration(o.DebounceMs) * time.Millisecond
}

type Connection struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type Theme struct {
	Theme                 string `toml:"theme"`
	Foreground            string `toml:"foreground"`
	Background            string `toml:"background"`
	StatuslineForeground  string `toml:"statusline-foreground"`
	StatuslineBackground  string `toml:"statusline-background"`
	LineNumberForeground  string `toml:"line-number-foreground"`
	ErrorForeground       string `toml:"error-foreground"`
	WarningForeground     string `toml:"warning-foreground"`
	InformationForeground string `toml:"information-foreground"`
}

// Keymap maps key names ("enter", "alt+enter", "ctrl+c") to editor actions.
type Keymap map[string]string

type Config struct {
	Editor     EditorOptions `toml:"editor"`
	Connection Connection    `toml:"connection"`
	Theme      Theme         `toml:"theme"`
	Keymap     Keymap        `toml:"keymap"`
}

func Default() Config {
	return Config{
		Editor: EditorOptions{
			DebounceMs:     300,
			MultiStatement: false,
			MaxHeight:      10,
			HistoryLimit:   1000,
			TabWidth:       4,
		},
		Connection: Connection{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
		},
		Theme: Theme{
			Foreground:            "#B3B1AD",
			Background:            "#0A0E14",
			StatuslineForeground:  "#B3B1AD",
			StatuslineBackground:  "#0F1419",
			LineNumberForeground:  "#3E4B59",
			ErrorForeground:       "#FF3333",
			WarningForeground:     "#FFB454",
			InformationForeground: "#59C2FF",
		},
		Keymap: Keymap{
			"enter":       "submit",
			"shift+enter": "newline",
			"ctrl+j":      "newline",
			"alt+enter":   "execute",
			"up":          "history_previous",
			"down":        "history_next",
			"left":        "move_left",
			"right":       "move_right",
			"home":        "line_start",
			"end":         "line_end",
			"backspace":   "backspace",
			"del":         "delete_char",
			"tab":         "indent",
			"ctrl+l":      "clear",
			"ctrl+c":      "quit",
			"ctrl+q":      "quit",
		},
	}
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	md, err := toml.Decode(string(data), &userCfg)
	if err != nil {
		return cfg, err
	}

	if userCfg.Editor.DebounceMs > 0 {
		cfg.Editor.DebounceMs = userCfg.Editor.DebounceMs
	}
	if md.IsDefined("editor", "multi-statement") {
		cfg.Editor.MultiStatement = userCfg.Editor.MultiStatement
	}
	if userCfg.Editor.MaxHeight > 0 {
		cfg.Editor.MaxHeight = userCfg.Editor.MaxHeight
	}
	if userCfg.Editor.HistoryLimit > 0 {
		cfg.Editor.HistoryLimit = userCfg.Editor.HistoryLimit
	}
	if userCfg.Editor.TabWidth > 0 {
		cfg.Editor.TabWidth = userCfg.Editor.TabWidth
	}
	if userCfg.Connection.URI != "" {
		cfg.Connection.URI = userCfg.Connection.URI
	}
	if userCfg.Connection.Username != "" {
		cfg.Connection.Username = userCfg.Connection.Username
	}
	if userCfg.Connection.Password != "" {
		cfg.Connection.Password = userCfg.Connection.Password
	}
	if userCfg.Connection.Database != "" {
		cfg.Connection.Database = userCfg.Connection.Database
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	for k, v := range userCfg.Keymap {
		cfg.Keymap[k] = v
	}

	return cfg, nil
}

func mergeTheme(dst *Theme, src Theme) {
	if src.Foreground != "" {
		dst.Foreground = src.Foreground
	}
	if src.Background != "" {
		dst.Background = src.Background
	}
	if src.StatuslineForeground != "" {
		dst.StatuslineForeground = src.StatuslineForeground
	}
	if src.StatuslineBackground != "" {
		dst.StatuslineBackground = src.StatuslineBackground
	}
	if src.LineNumberForeground != "" {
		dst.LineNumberForeground = src.LineNumberForeground
	}
	if src.ErrorForeground != "" {
		dst.ErrorForeground = src.ErrorForeground
	}
	if src.WarningForeground != "" {
		dst.WarningForeground = src.WarningForeground
	}
	if src.InformationForeground != "" {
		dst.InformationForeground = src.InformationForeground
	}
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads a named theme file. Both bare keys and a [theme] table
// are accepted.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var wrap struct {
		Theme Theme `toml:"theme"`
	}
	md, err := toml.Decode(string(data), &wrap)
	if err != nil {
		return Theme{}, err
	}
	if md.IsDefined("theme") {
		return wrap.Theme, nil
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("CYPHERPAD_CONFIG_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cypherpad"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cypherpad"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryDir is where the executed-query history database lives.
func HistoryDir() (string, error) {
	return ConfigDir()
}
