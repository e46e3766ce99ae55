package buffer

import (
	"sort"
	"strings"
	"sync"

	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// Cursor is a 0-based row and rune column.
type Cursor struct {
	Row int
	Col int
}

// Buffer is the editable text of the editor plus its diagnostic markers.
// It is safe for concurrent use; probes add markers off the UI goroutine.
type Buffer struct {
	mu       sync.Mutex
	lines    [][]rune
	cursor   Cursor
	markers  map[string][]diag.Diagnostic
	onChange func(text string)
}

func New(text string) *Buffer {
	return &Buffer{
		lines:   splitLines(text),
		markers: make(map[string][]diag.Diagnostic),
	}
}

// OnChange registers fn to run after every content change, outside the lock.
func (b *Buffer) OnChange(fn func(text string)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

func (b *Buffer) Value() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return joinLines(b.lines)
}

// SetValue replaces the content and puts the cursor at the start.
func (b *Buffer) SetValue(text string) {
	b.mu.Lock()
	b.lines = splitLines(text)
	b.cursor = Cursor{}
	b.mu.Unlock()
	b.changed()
}

func (b *Buffer) IsMultiLine() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines) > 1
}

func (b *Buffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Line returns a copy of row, or nil when out of range.
func (b *Buffer) Line(row int) []rune {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row < 0 || row >= len(b.lines) {
		return nil
	}
	return append([]rune(nil), b.lines[row]...)
}

func (b *Buffer) Cursor() Cursor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Position returns the cursor in editor coordinates.
func (b *Buffer) Position() statement.Position {
	c := b.Cursor()
	return statement.Position{Line: c.Row + 1, Column: c.Col}
}

// SetPosition moves the cursor, clamping to the content.
func (b *Buffer) SetPosition(pos statement.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row := pos.Line - 1
	if row < 0 {
		row = 0
	}
	if row >= len(b.lines) {
		row = len(b.lines) - 1
	}
	b.cursor.Row = row
	b.cursor.Col = pos.Column
	if b.cursor.Col < 0 {
		b.cursor.Col = 0
	}
	b.clampColLocked()
}

// MoveToEnd puts the cursor after the last rune of the last line.
func (b *Buffer) MoveToEnd() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor.Row = len(b.lines) - 1
	b.cursor.Col = len(b.lines[b.cursor.Row])
}

func (b *Buffer) InsertRune(r rune) {
	b.mu.Lock()
	pos := b.cursor
	line := b.lines[pos.Row]
	if pos.Col > len(line) {
		pos.Col = len(line)
	}
	line = append(line, 0)
	copy(line[pos.Col+1:], line[pos.Col:])
	line[pos.Col] = r
	b.lines[pos.Row] = line
	b.cursor = Cursor{Row: pos.Row, Col: pos.Col + 1}
	b.mu.Unlock()
	b.changed()
}

// InsertText inserts text at the cursor as a single change.
func (b *Buffer) InsertText(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	pos := b.cursor
	line := b.lines[pos.Row]
	if pos.Col > len(line) {
		pos.Col = len(line)
	}
	head := append([]rune(nil), line[:pos.Col]...)
	tail := append([]rune(nil), line[pos.Col:]...)
	parts := splitLines(text)
	parts[0] = append(head, parts[0]...)
	last := len(parts) - 1
	col := len(parts[last])
	parts[last] = append(parts[last], tail...)

	lines := make([][]rune, 0, len(b.lines)+last)
	lines = append(lines, b.lines[:pos.Row]...)
	lines = append(lines, parts...)
	lines = append(lines, b.lines[pos.Row+1:]...)
	b.lines = lines
	b.cursor = Cursor{Row: pos.Row + last, Col: col}
	b.mu.Unlock()
	b.changed()
}

// InsertNewline splits the current line at the cursor.
func (b *Buffer) InsertNewline() {
	b.mu.Lock()
	pos := b.cursor
	line := b.lines[pos.Row]
	if pos.Col > len(line) {
		pos.Col = len(line)
	}
	left := append([]rune(nil), line[:pos.Col]...)
	right := append([]rune(nil), line[pos.Col:]...)

	lines := make([][]rune, 0, len(b.lines)+1)
	lines = append(lines, b.lines[:pos.Row]...)
	lines = append(lines, left, right)
	lines = append(lines, b.lines[pos.Row+1:]...)
	b.lines = lines
	b.cursor = Cursor{Row: pos.Row + 1, Col: 0}
	b.mu.Unlock()
	b.changed()
}

// Backspace deletes the rune before the cursor, joining lines at column 0.
func (b *Buffer) Backspace() {
	b.mu.Lock()
	var ok bool
	if b.cursor.Col > 0 {
		ok = b.deleteRuneLocked(Cursor{Row: b.cursor.Row, Col: b.cursor.Col - 1})
	} else if b.cursor.Row > 0 {
		ok = b.joinLineLocked(Cursor{Row: b.cursor.Row - 1, Col: len(b.lines[b.cursor.Row-1])})
	}
	b.mu.Unlock()
	if ok {
		b.changed()
	}
}

// Delete removes the rune under the cursor, joining with the next line at
// the end of a line.
func (b *Buffer) Delete() {
	b.mu.Lock()
	var ok bool
	line := b.lines[b.cursor.Row]
	if b.cursor.Col < len(line) {
		ok = b.deleteRuneLocked(b.cursor)
	} else {
		ok = b.joinLineLocked(Cursor{Row: b.cursor.Row, Col: len(line)})
	}
	b.mu.Unlock()
	if ok {
		b.changed()
	}
}

func (b *Buffer) deleteRuneLocked(pos Cursor) bool {
	line := b.lines[pos.Row]
	if pos.Col < 0 || pos.Col >= len(line) {
		return false
	}
	copy(line[pos.Col:], line[pos.Col+1:])
	b.lines[pos.Row] = line[:len(line)-1]
	b.cursor = pos
	return true
}

func (b *Buffer) joinLineLocked(pos Cursor) bool {
	if pos.Row < 0 || pos.Row+1 >= len(b.lines) {
		return false
	}
	merged := append(append([]rune(nil), b.lines[pos.Row]...), b.lines[pos.Row+1]...)
	lines := make([][]rune, 0, len(b.lines)-1)
	lines = append(lines, b.lines[:pos.Row]...)
	lines = append(lines, merged)
	lines = append(lines, b.lines[pos.Row+2:]...)
	b.lines = lines
	b.cursor = pos
	return true
}

func (b *Buffer) MoveLeft() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cursor.Col > 0 {
		b.cursor.Col--
		return
	}
	if b.cursor.Row == 0 {
		return
	}
	b.cursor.Row--
	b.cursor.Col = len(b.lines[b.cursor.Row])
}

func (b *Buffer) MoveRight() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cursor.Col < len(b.lines[b.cursor.Row]) {
		b.cursor.Col++
		return
	}
	if b.cursor.Row >= len(b.lines)-1 {
		return
	}
	b.cursor.Row++
	b.cursor.Col = 0
}

func (b *Buffer) MoveUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cursor.Row == 0 {
		return
	}
	b.cursor.Row--
	b.clampColLocked()
}

func (b *Buffer) MoveDown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cursor.Row >= len(b.lines)-1 {
		return
	}
	b.cursor.Row++
	b.clampColLocked()
}

func (b *Buffer) MoveLineStart() {
	b.mu.Lock()
	b.cursor.Col = 0
	b.mu.Unlock()
}

func (b *Buffer) MoveLineEnd() {
	b.mu.Lock()
	b.cursor.Col = len(b.lines[b.cursor.Row])
	b.mu.Unlock()
}

func (b *Buffer) clampColLocked() {
	if n := len(b.lines[b.cursor.Row]); b.cursor.Col > n {
		b.cursor.Col = n
	}
}

// ClearMarkers removes every marker installed by owner.
func (b *Buffer) ClearMarkers(owner string) {
	b.mu.Lock()
	delete(b.markers, owner)
	b.mu.Unlock()
}

func (b *Buffer) AddMarkers(owner string, diags ...diag.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	b.mu.Lock()
	b.markers[owner] = append(b.markers[owner], diags...)
	b.mu.Unlock()
}

// Markers returns all markers sorted by start position.
func (b *Buffer) Markers() []diag.Diagnostic {
	b.mu.Lock()
	var out []diag.Diagnostic
	for _, ds := range b.markers {
		out = append(out, ds...)
	}
	b.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Severity < out[j].Severity
	})
	return out
}

// MarkersAt returns the markers covering row/col (0-based row).
func (b *Buffer) MarkersAt(row, col int) []diag.Diagnostic {
	pos := statement.Position{Line: row + 1, Column: col}
	var out []diag.Diagnostic
	for _, d := range b.Markers() {
		if !pos.Before(d.Start) && pos.Before(d.End) {
			out = append(out, d)
		}
	}
	return out
}

func (b *Buffer) changed() {
	b.mu.Lock()
	fn := b.onChange
	text := joinLines(b.lines)
	b.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

func splitLines(text string) [][]rune {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return lines
}

func joinLines(lines [][]rune) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(line))
	}
	return sb.String()
}
