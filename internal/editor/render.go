package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// Render draws the editor into rows [y, y+Height()) of width w.
func (e *Editor) Render(s tcell.Screen, y, w int) {
	if w <= 0 || e.height <= 0 {
		return
	}
	lineCount := e.buf.LineCount()
	cursor := e.buf.Cursor()
	e.ensureCursorVisible(cursor.Row)
	markers := e.buf.Markers()
	gutter := gutterWidth(lineCount)

	for row := 0; row < e.height; row++ {
		clearLine(s, y+row, w, e.styleMain)
		lineIdx := e.scroll + row
		if lineIdx >= lineCount {
			continue
		}
		e.drawGutter(s, y+row, gutter, lineIdx, lineCount)
		line := e.buf.Line(lineIdx)
		x := gutter
		for col, r := range line {
			if x >= w {
				break
			}
			style := e.styleFor(markers, lineIdx, col)
			if r == '\t' {
				n := e.tabWidth - (x-gutter)%e.tabWidth
				for i := 0; i < n && x < w; i++ {
					s.SetContent(x, y+row, ' ', nil, style)
					x++
				}
				continue
			}
			s.SetContent(x, y+row, r, nil, style)
			x++
		}
	}

	if !e.Focused() {
		return
	}
	cy := cursor.Row - e.scroll
	if cy < 0 || cy >= e.height {
		s.HideCursor()
		return
	}
	cx := gutter + visualCol(e.buf.Line(cursor.Row), cursor.Col, e.tabWidth)
	if cx >= w {
		cx = w - 1
	}
	s.SetCursorStyle(tcell.CursorStyleSteadyBar)
	s.ShowCursor(cx, y+cy)
}

func (e *Editor) ensureCursorVisible(row int) {
	if row < e.scroll {
		e.scroll = row
	}
	if row >= e.scroll+e.height {
		e.scroll = row - e.height + 1
	}
	if e.scroll < 0 {
		e.scroll = 0
	}
}

func (e *Editor) drawGutter(s tcell.Screen, y, width, lineIdx, lineCount int) {
	var label string
	if lineCount == 1 {
		label = fmt.Sprintf("%*s ", width-1, "›")
	} else {
		label = fmt.Sprintf("%*d ", width-1, lineIdx+1)
	}
	x := 0
	for _, r := range label {
		if x >= width {
			break
		}
		s.SetContent(x, y, r, nil, e.styleGutter)
		x++
	}
}

// styleFor picks the style of the most severe marker covering the cell.
func (e *Editor) styleFor(markers []diag.Diagnostic, row, col int) tcell.Style {
	pos := statement.Position{Line: row + 1, Column: col}
	best := diag.Severity(0)
	for _, d := range markers {
		if pos.Before(d.Start) || !pos.Before(d.End) {
			continue
		}
		if best == 0 || d.Severity < best {
			best = d.Severity
		}
	}
	switch best {
	case diag.SeverityError:
		return e.styleError
	case diag.SeverityWarning:
		return e.styleWarning
	case diag.SeverityInformation, diag.SeverityHint:
		return e.styleInformation
	}
	return e.styleMain
}

func gutterWidth(lineCount int) int {
	digits := len(strconv.Itoa(lineCount))
	if digits < 2 {
		digits = 2
	}
	return digits + 1
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func visualCol(line []rune, logicalCol int, tabWidth int) int {
	if tabWidth < 1 {
		tabWidth = 1
	}
	col := 0
	for i := 0; i < logicalCol && i < len(line); i++ {
		if line[i] == '\t' {
			col += tabWidth - col%tabWidth
			continue
		}
		col++
	}
	return col
}

// ParseColor reads a "#rrggbb" or named color, falling back when unset or
// unknown.
func ParseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
