package domain

import (
	"slices"
	"strings"
)

// Decision is the go/no-go verdict recorded on a project.
type Decision string

// Decision values. DecisionNone means no verdict has been recorded yet.
const (
	DecisionNone      Decision = ""
	DecisionGo        Decision = "GO"
	DecisionHold      Decision = "HOLD"
	DecisionRisky     Decision = "RISKY"
	DecisionDiscarded Decision = "DISCARDED"
	DecisionSelected  Decision = "SELECTED"
	DecisionRejected  Decision = "REJECTED"
)

var validDecisions = []Decision{
	DecisionNone,
	DecisionGo,
	DecisionHold,
	DecisionRisky,
	DecisionDiscarded,
	DecisionSelected,
	DecisionRejected,
}

// NormalizeDecision canonicalizes a decision value and validates it.
func NormalizeDecision(d Decision) (Decision, error) {
	d = Decision(strings.ToUpper(strings.TrimSpace(string(d))))
	if d == "NONE" {
		d = DecisionNone
	}
	if !slices.Contains(validDecisions, d) {
		return "", ErrInvalidDecision
	}
	return d, nil
}
