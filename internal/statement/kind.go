package statement

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a statement for the analysis pipeline.
type Kind int

const (
	KindEmpty Kind = iota
	KindPlain
	KindCommand
	KindAlreadyWrapped
)

// CommandSigil starts every client command (":clear", ":use neo4j").
const CommandSigil = ":"

var wrapDirectives = []string{"explain", "profile"}

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindCommand:
		return "command"
	case KindAlreadyWrapped:
		return "already-wrapped"
	default:
		return "empty"
	}
}

// Classify computes the kind of a statement text once; callers switch on the
// result instead of repeating prefix checks.
func Classify(text string) Kind {
	t := strings.TrimSpace(text)
	if t == "" {
		return KindEmpty
	}
	if strings.HasPrefix(t, CommandSigil) {
		return KindCommand
	}
	for _, d := range wrapDirectives {
		if hasLeadingWord(t, d) {
			return KindAlreadyWrapped
		}
	}
	return KindPlain
}

// Eligible reports whether text should be probed for diagnostics.
func Eligible(text string) bool {
	return Classify(text) == KindPlain
}

// hasLeadingWord matches word case-insensitively as a whole word at the start
// of t. word must be ASCII.
func hasLeadingWord(t, word string) bool {
	if len(t) < len(word) || !strings.EqualFold(t[:len(word)], word) {
		return false
	}
	if len(t) == len(word) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(t[len(word):])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
