package diag

import (
	"strings"
	"unicode/utf8"

	"github.com/kobzarvs/cypherpad/internal/statement"
)

// ExplainPrefix is prepended to a statement before it is sent as a probe.
const ExplainPrefix = "EXPLAIN "

// MultiStatementMessage is shown on the second statement when the buffer holds
// several statements and multi-statement mode is off.
const MultiStatementMessage = "To run multiple statements, enable multi-statement mode " +
	"(editor.multi-statement in config.toml or --multi-statement)."

const multiStatementCode = "cypherpad.MultiStatement"

var prefixLen = utf8.RuneCountInString(ExplainPrefix)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// ParseSeverity maps server severity names. Unknown names are warnings.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return SeverityError
	case "INFORMATION", "INFO":
		return SeverityInformation
	case "HINT":
		return SeverityHint
	default:
		return SeverityWarning
	}
}

// Notification is a server message about a probed query. Position is
// relative to the rewritten query (line 1-based, column 0-based).
type Notification struct {
	Code        string
	Title       string
	Description string
	Severity    Severity
	Position    statement.Position
}

// Diagnostic is a marker in original buffer coordinates.
type Diagnostic struct {
	Start    statement.Position
	End      statement.Position
	Message  string
	Severity Severity
	Code     string
}

// Rewrite returns the probe query for a statement.
func Rewrite(text string) string {
	return ExplainPrefix + text
}

// MapPosition translates a position in Rewrite(st.Text) back to buffer
// coordinates. Positions outside the rewritten text, or inside the prefix,
// are rejected.
func MapPosition(pos statement.Position, st statement.Statement) (statement.Position, bool) {
	lines := strings.Split(Rewrite(st.Text), "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return statement.Position{}, false
	}
	if pos.Column < 0 || pos.Column > utf8.RuneCountInString(lines[pos.Line-1]) {
		return statement.Position{}, false
	}
	col := pos.Column
	if pos.Line == 1 {
		if col < prefixLen {
			return statement.Position{}, false
		}
		col = col - prefixLen + st.Start.Column
	}
	return statement.Position{
		Line:   st.Start.Line + pos.Line - 1,
		Column: col,
	}, true
}

// LineLengths holds the rune length of every buffer line.
type LineLengths []int

func MeasureLines(text string) LineLengths {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make(LineLengths, len(parts))
	for i, p := range parts {
		out[i] = utf8.RuneCountInString(p)
	}
	return out
}

// Len returns the length of a 1-based line, or 0 if it does not exist.
func (l LineLengths) Len(line int) int {
	if line < 1 || line > len(l) {
		return 0
	}
	return l[line-1]
}

// FromNotification builds a diagnostic for n raised against st. The marker
// runs from the mapped position to the end of its line.
func FromNotification(n Notification, st statement.Statement, lines LineLengths) (Diagnostic, bool) {
	start, ok := MapPosition(n.Position, st)
	if !ok {
		return Diagnostic{}, false
	}
	msg := n.Title
	if n.Description != "" {
		if msg != "" {
			msg += "\n"
		}
		msg += n.Description
	}
	severity := n.Severity
	if severity == 0 {
		severity = SeverityWarning
	}
	return Diagnostic{
		Start:    start,
		End:      lineEnd(start, lines),
		Message:  msg,
		Severity: severity,
		Code:     n.Code,
	}, true
}

// MultiStatementWarning anchors the structural warning at the second
// statement.
func MultiStatementWarning(second statement.Statement, lines LineLengths) Diagnostic {
	return Diagnostic{
		Start:    second.Start,
		End:      lineEnd(second.Start, lines),
		Message:  MultiStatementMessage,
		Severity: SeverityWarning,
		Code:     multiStatementCode,
	}
}

func lineEnd(start statement.Position, lines LineLengths) statement.Position {
	end := statement.Position{Line: start.Line, Column: lines.Len(start.Line)}
	if end.Column <= start.Column {
		end.Column = start.Column + 1
	}
	return end
}
