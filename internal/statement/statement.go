package statement

import (
	"strings"
	"unicode"
)

// Position is a location in editor text. Lines are 1-based, columns are
// 0-based rune offsets within the line.
type Position struct {
	Line   int
	Column int
}

func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// Statement is one query or client command cut out of the editor text.
// End is exclusive.
type Statement struct {
	Text  string
	Start Position
	End   Position
}

// Parser splits raw editor text into statements.
type Parser interface {
	Parse(text string) []Statement
}

// DefaultParser is the Parser backed by Parse.
type DefaultParser struct{}

func (DefaultParser) Parse(text string) []Statement {
	return Parse(text)
}

type lexState int

const (
	stateCode lexState = iota
	stateSingleQuote
	stateDoubleQuote
	stateBacktick
	stateLineComment
	stateBlockComment
)

// Parse splits text on unquoted semicolons. Client commands (":" first) also
// end at a newline. Leading and trailing whitespace and comments are not part
// of a statement; segments holding nothing else are dropped.
func Parse(text string) []Statement {
	runes := []rune(strings.ReplaceAll(text, "\r\n", "\n"))

	var (
		out      []Statement
		state    = stateCode
		line     = 1
		col      = 0
		started  bool
		command  bool
		escaped  bool
		skip     bool
		start    Position
		end      Position
		startIdx int
		endIdx   int
	)

	flush := func() {
		if started {
			out = append(out, Statement{
				Text:  string(runes[startIdx:endIdx]),
				Start: start,
				End:   end,
			})
		}
		started = false
		command = false
	}
	mark := func(i int, r rune) {
		if !started {
			started = true
			command = r == ':'
			start = Position{Line: line, Column: col}
			startIdx = i
		}
		endIdx = i + 1
		end = Position{Line: line, Column: col + 1}
	}

	for i, r := range runes {
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch {
		case skip:
			skip = false
		case state == stateLineComment:
			if r == '\n' {
				state = stateCode
			}
		case state == stateBlockComment:
			if r == '*' && next == '/' {
				state = stateCode
				skip = true
			}
		case state == stateSingleQuote || state == stateDoubleQuote || state == stateBacktick:
			mark(i, r)
			switch {
			case escaped:
				escaped = false
			case r == '\\' && state != stateBacktick:
				escaped = true
			case r == closingQuote(state):
				state = stateCode
			}
		default:
			switch {
			case r == ';':
				flush()
			case r == '\n' && command:
				flush()
			case unicode.IsSpace(r):
			case r == '/' && next == '/' && !command:
				state = stateLineComment
			case r == '/' && next == '*' && !command:
				state = stateBlockComment
				skip = true
			case r == '\'':
				mark(i, r)
				state = stateSingleQuote
			case r == '"':
				mark(i, r)
				state = stateDoubleQuote
			case r == '`':
				mark(i, r)
				state = stateBacktick
			default:
				mark(i, r)
			}
		}
		if r == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	flush()
	return out
}

func closingQuote(state lexState) rune {
	switch state {
	case stateSingleQuote:
		return '\''
	case stateDoubleQuote:
		return '"'
	default:
		return '`'
	}
}

// IsMultiLine reports whether text spans more than one line. Both history
// navigation and the Enter key dispatch on it.
func IsMultiLine(text string) bool {
	return strings.Contains(text, "\n")
}
