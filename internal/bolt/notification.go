package bolt

import (
	"unicode/utf8"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/kobzarvs/cypherpad/internal/diag"
	"github.com/kobzarvs/cypherpad/internal/statement"
)

// serverNotification is the part of neo4j.Notification the converter reads.
type serverNotification interface {
	Code() string
	Title() string
	Description() string
	RawSeverityLevel() string
	Position() neo4j.InputPosition
}

func convertNotifications(in []neo4j.Notification) []diag.Notification {
	if len(in) == 0 {
		return nil
	}
	out := make([]diag.Notification, 0, len(in))
	for _, n := range in {
		out = append(out, toNotification(n))
	}
	return out
}

// toNotification converts the server's 1-based column to a 0-based one.
// Notifications without a position are anchored right after the probe
// prefix, which maps to the start of the statement.
func toNotification(n serverNotification) diag.Notification {
	pos := statement.Position{Line: 1, Column: utf8.RuneCountInString(diag.ExplainPrefix)}
	if p := n.Position(); p != nil {
		pos = statement.Position{Line: p.Line(), Column: p.Column() - 1}
	}
	return diag.Notification{
		Code:        n.Code(),
		Title:       n.Title(),
		Description: n.Description(),
		Severity:    diag.ParseSeverity(n.RawSeverityLevel()),
		Position:    pos,
	}
}
