package statement

import (
	"reflect"
	"testing"
)

func TestParseSplitsOnSemicolons(t *testing.T) {
	got := Parse("RETURN 1;\nRETURN 2;\nRETURN 3;")
	want := []Statement{
		{Text: "RETURN 1", Start: Position{Line: 1, Column: 0}, End: Position{Line: 1, Column: 8}},
		{Text: "RETURN 2", Start: Position{Line: 2, Column: 0}, End: Position{Line: 2, Column: 8}},
		{Text: "RETURN 3", Start: Position{Line: 3, Column: 0}, End: Position{Line: 3, Column: 8}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse = %#v, want %#v", got, want)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	text := "MATCH (n)\nWHERE n.name = 'a;b'\nRETURN n;\n:clear\n  CREATE (x) // done"
	first := Parse(text)
	second := Parse(text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Parse not idempotent:\n%#v\n%#v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("len = %d, want 3", len(first))
	}
}

func TestParseQuotedSemicolons(t *testing.T) {
	got := Parse(`RETURN "a;b"; RETURN 'c\'d;'; RETURN ` + "`x;y`")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %#v", len(got), got)
	}
	if got[0].Text != `RETURN "a;b"` {
		t.Fatalf("stmt0 = %q", got[0].Text)
	}
	if got[1].Text != `RETURN 'c\'d;'` {
		t.Fatalf("stmt1 = %q", got[1].Text)
	}
	if got[1].Start != (Position{Line: 1, Column: 14}) {
		t.Fatalf("stmt1 start = %+v, want 1:14", got[1].Start)
	}
	if got[2].Text != "RETURN `x;y`" {
		t.Fatalf("stmt2 = %q", got[2].Text)
	}
}

func TestParseSkipsComments(t *testing.T) {
	got := Parse("// lead;\nMATCH (n) /* ; */ RETURN n; // trailing ;\n/* only */;")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %#v", len(got), got)
	}
	if got[0].Text != "MATCH (n) /* ; */ RETURN n" {
		t.Fatalf("text = %q", got[0].Text)
	}
	if got[0].Start != (Position{Line: 2, Column: 0}) {
		t.Fatalf("start = %+v, want 2:0", got[0].Start)
	}
}

func TestParseBlockCommentClose(t *testing.T) {
	got := Parse("/*/ still comment; */RETURN 1")
	if len(got) != 1 || got[0].Text != "RETURN 1" {
		t.Fatalf("Parse = %#v, want single RETURN 1", got)
	}
	if got[0].Start.Column != 21 {
		t.Fatalf("start col = %d, want 21", got[0].Start.Column)
	}
}

func TestParseClientCommandsEndAtNewline(t *testing.T) {
	got := Parse(":play http://example.com/guide\n:clear\nRETURN 1")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %#v", len(got), got)
	}
	if got[0].Text != ":play http://example.com/guide" {
		t.Fatalf("cmd0 = %q", got[0].Text)
	}
	if got[1].Text != ":clear" || got[1].Start.Line != 2 {
		t.Fatalf("cmd1 = %q at %+v", got[1].Text, got[1].Start)
	}
	if got[2].Start != (Position{Line: 3, Column: 0}) {
		t.Fatalf("stmt start = %+v, want 3:0", got[2].Start)
	}
}

func TestParseMultiLineStatement(t *testing.T) {
	got := Parse("  MATCH (n)\n  RETURN n")
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	st := got[0]
	if st.Text != "MATCH (n)\n  RETURN n" {
		t.Fatalf("text = %q", st.Text)
	}
	if st.Start != (Position{Line: 1, Column: 2}) {
		t.Fatalf("start = %+v, want 1:2", st.Start)
	}
	if st.End != (Position{Line: 2, Column: 10}) {
		t.Fatalf("end = %+v, want 2:10", st.End)
	}
}

func TestParseNormalizesCRLF(t *testing.T) {
	got := Parse("RETURN 1;\r\nRETURN 2")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].Start != (Position{Line: 2, Column: 0}) {
		t.Fatalf("start = %+v, want 2:0", got[1].Start)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", ";;", "\n;\n"} {
		if got := Parse(text); len(got) != 0 {
			t.Fatalf("Parse(%q) = %#v, want none", text, got)
		}
	}
}

func TestPositionBefore(t *testing.T) {
	a := Position{Line: 1, Column: 5}
	b := Position{Line: 2, Column: 0}
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("line ordering wrong")
	}
	if !a.Before(Position{Line: 1, Column: 6}) {
		t.Fatalf("column ordering wrong")
	}
	if a.Before(a) {
		t.Fatalf("a before itself")
	}
}

func TestIsMultiLine(t *testing.T) {
	if IsMultiLine("RETURN 1") {
		t.Fatalf("single line reported multi-line")
	}
	if !IsMultiLine("MATCH (n)\nRETURN n") {
		t.Fatalf("two lines reported single line")
	}
}
