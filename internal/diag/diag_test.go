package diag

import (
	"strings"
	"testing"

	"github.com/kobzarvs/cypherpad/internal/statement"
)

func stmt(text string, line, col int) statement.Statement {
	return statement.Statement{
		Text:  text,
		Start: statement.Position{Line: line, Column: col},
	}
}

func TestMapPositionFirstLine(t *testing.T) {
	st := stmt("MATCH (n) RETURN m", 3, 4)
	for k := 0; k <= len(st.Text); k++ {
		got, ok := MapPosition(statement.Position{Line: 1, Column: len(ExplainPrefix) + k}, st)
		if !ok {
			t.Fatalf("k=%d: not mapped", k)
		}
		want := statement.Position{Line: 3, Column: 4 + k}
		if got != want {
			t.Fatalf("k=%d: MapPosition = %+v, want %+v", k, got, want)
		}
	}
}

func TestMapPositionLaterLines(t *testing.T) {
	st := stmt("MATCH (n)\nRETURN m", 2, 5)
	got, ok := MapPosition(statement.Position{Line: 2, Column: 7}, st)
	if !ok {
		t.Fatalf("not mapped")
	}
	if want := (statement.Position{Line: 3, Column: 7}); got != want {
		t.Fatalf("MapPosition = %+v, want %+v", got, want)
	}
}

func TestMapPositionFailsClosed(t *testing.T) {
	st := stmt("MATCH (n)\nRETURN m", 1, 0)
	bad := []statement.Position{
		{Line: 0, Column: 8},
		{Line: 3, Column: 0},
		{Line: 1, Column: 3},
		{Line: 1, Column: 100},
		{Line: 2, Column: 9},
		{Line: 2, Column: -1},
	}
	for _, pos := range bad {
		if got, ok := MapPosition(pos, st); ok {
			t.Fatalf("MapPosition(%+v) = %+v, want rejection", pos, got)
		}
	}
}

func TestFromNotification(t *testing.T) {
	text := "RETURN 1;\n  MATCH (n:Persn) RETURN n"
	st := stmt("MATCH (n:Persn) RETURN n", 2, 2)
	n := Notification{
		Code:        "Neo.ClientNotification.Statement.UnknownLabelWarning",
		Title:       "The provided label is not in the database.",
		Description: "One of the labels in your query is not available in the database",
		Severity:    ParseSeverity("WARNING"),
		Position:    statement.Position{Line: 1, Column: len(ExplainPrefix) + 9},
	}
	d, ok := FromNotification(n, st, MeasureLines(text))
	if !ok {
		t.Fatalf("FromNotification rejected")
	}
	if d.Start != (statement.Position{Line: 2, Column: 11}) {
		t.Fatalf("start = %+v, want 2:11", d.Start)
	}
	if d.End != (statement.Position{Line: 2, Column: 26}) {
		t.Fatalf("end = %+v, want 2:26", d.End)
	}
	if d.Severity != SeverityWarning {
		t.Fatalf("severity = %v, want warning", d.Severity)
	}
	if !strings.Contains(d.Message, n.Title) || !strings.Contains(d.Message, n.Description) {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestFromNotificationOutOfBounds(t *testing.T) {
	st := stmt("RETURN 1", 1, 0)
	n := Notification{Title: "x", Position: statement.Position{Line: 2, Column: 0}}
	if _, ok := FromNotification(n, st, MeasureLines("RETURN 1")); ok {
		t.Fatalf("out of bounds notification accepted")
	}
}

func TestMultiStatementWarning(t *testing.T) {
	text := "RETURN 1;\nRETURN 2;"
	second := stmt("RETURN 2", 2, 0)
	d := MultiStatementWarning(second, MeasureLines(text))
	if d.Start != second.Start {
		t.Fatalf("start = %+v, want %+v", d.Start, second.Start)
	}
	if d.End != (statement.Position{Line: 2, Column: 9}) {
		t.Fatalf("end = %+v, want 2:9", d.End)
	}
	if d.Message != MultiStatementMessage {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"WARNING":     SeverityWarning,
		"information": SeverityInformation,
		"ERROR":       SeverityError,
		"":            SeverityWarning,
		"UNKNOWN":     SeverityWarning,
	}
	for in, want := range tests {
		if got := ParseSeverity(in); got != want {
			t.Fatalf("ParseSeverity(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLineLengths(t *testing.T) {
	l := MeasureLines("ab\r\nxyz\n")
	if l.Len(1) != 2 || l.Len(2) != 3 || l.Len(3) != 0 || l.Len(4) != 0 {
		t.Fatalf("lengths = %v", l)
	}
}
