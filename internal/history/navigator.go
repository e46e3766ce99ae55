package history

import "github.com/kobzarvs/cypherpad/internal/statement"

// None is the index while the live draft is shown.
const None = -1

type State int

const (
	Live State = iota
	Browsing
)

func (s State) String() string {
	if s == Browsing {
		return "browsing"
	}
	return "live"
}

// Target is the buffer the navigator drives.
type Target interface {
	Value() string
	// SetValue replaces the content without resetting navigation.
	SetValue(text string)
	MoveToEnd()
}

// Navigator steps a single-line buffer through previously executed
// commands, keeping whatever the user was typing as the draft.
// entries[0] is the first entry Previous shows.
type Navigator struct {
	target  Target
	entries []string
	index   int
	draft   string
}

func NewNavigator(target Target, entries []string) *Navigator {
	n := &Navigator{target: target, index: None}
	n.SetEntries(entries)
	return n
}

// SetEntries replaces the history and returns to the live draft state.
func (n *Navigator) SetEntries(entries []string) {
	n.entries = append([]string(nil), entries...)
	n.index = None
}

func (n *Navigator) Entries() []string {
	return append([]string(nil), n.entries...)
}

// Reset returns to Live without touching the buffer.
func (n *Navigator) Reset() {
	n.index = None
}

func (n *Navigator) State() State {
	if n.index == None {
		return Live
	}
	return Browsing
}

func (n *Navigator) Index() int {
	return n.index
}

func (n *Navigator) Draft() string {
	return n.draft
}

// Previous moves to the next older entry. It returns false when the buffer
// spans several lines; the caller then moves the cursor instead.
func (n *Navigator) Previous() bool {
	current := n.target.Value()
	if statement.IsMultiLine(current) {
		return false
	}
	if n.index == None {
		if len(n.entries) == 0 {
			return true
		}
		n.draft = current
		n.show(0)
		return true
	}
	if n.index+1 < len(n.entries) {
		n.show(n.index + 1)
	}
	return true
}

// Next moves to the next newer entry, or back to the draft.
func (n *Navigator) Next() bool {
	if statement.IsMultiLine(n.target.Value()) {
		return false
	}
	switch {
	case n.index == None:
	case n.index == 0:
		n.index = None
		n.target.SetValue(n.draft)
		n.target.MoveToEnd()
	default:
		n.show(n.index - 1)
	}
	return true
}

func (n *Navigator) show(i int) {
	n.index = i
	n.target.SetValue(n.entries[i])
	n.target.MoveToEnd()
}
