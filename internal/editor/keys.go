package editor

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// keyString names a key event the way keymap entries are written.
func keyString(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	// Enter, Tab and Backspace share codes with ctrl+m, ctrl+i and ctrl+h,
	// so they are named before the ctrl table is consulted.
	switch ev.Key() {
	case tcell.KeyEnter:
		switch {
		case mods&tcell.ModAlt != 0:
			return "alt+enter"
		case mods&tcell.ModShift != 0:
			return "shift+enter"
		case mods&tcell.ModMeta != 0:
			return "cmd+enter"
		}
		return "enter"
	case tcell.KeyTab:
		if mods&tcell.ModShift != 0 {
			return "shift+tab"
		}
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if mods&tcell.ModAlt != 0 {
			return "alt+backspace"
		}
		return "backspace"
	}

	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if mods&tcell.ModCtrl != 0 {
			return "ctrl+" + strings.ToLower(string(r))
		}
		if mods&tcell.ModAlt != 0 {
			return "alt+" + strings.ToLower(string(r))
		}
		if r == ' ' {
			return "space"
		}
		return string(r)
	}
	if name := ctrlKeyName(ev.Key()); name != "" {
		return name
	}

	var name string
	switch ev.Key() {
	case tcell.KeyUp:
		name = "up"
	case tcell.KeyDown:
		name = "down"
	case tcell.KeyLeft:
		name = "left"
	case tcell.KeyRight:
		name = "right"
	case tcell.KeyPgUp:
		name = "pgup"
	case tcell.KeyPgDn:
		name = "pgdn"
	case tcell.KeyHome:
		name = "home"
	case tcell.KeyEnd:
		name = "end"
	case tcell.KeyDelete:
		name = "del"
	case tcell.KeyEscape:
		name = "esc"
	default:
		return ""
	}
	switch {
	case mods&tcell.ModAlt != 0:
		return "alt+" + name
	case mods&tcell.ModCtrl != 0:
		return "ctrl+" + name
	case mods&tcell.ModMeta != 0:
		return "cmd+" + name
	}
	return name
}

func ctrlKeyName(key tcell.Key) string {
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "ctrl+" + string(rune('a'+int(key-tcell.KeyCtrlA)))
	}
	return ""
}
