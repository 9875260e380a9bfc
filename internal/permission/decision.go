package permission

import (
	"fmt"
	"strings"
)

// Decision represents the outcome of evaluating a capability and target
// against the ruleset.
type Decision int

const (
	// DecisionAllow means the call may proceed without interaction.
	DecisionAllow Decision = iota
	// DecisionAsk means an external interactive collaborator must resolve
	// the request before the call may proceed.
	DecisionAsk
	// DecisionDeny means the call must not proceed.
	DecisionDeny
)

// String returns the string representation of a Decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionAsk:
		return "ask"
	case DecisionDeny:
		return "deny"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ParseDecision parses a string into a Decision.
// Accepted values: "allow", "ask", "deny" (case-insensitive).
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(s) {
	case "allow":
		return DecisionAllow, nil
	case "ask":
		return DecisionAsk, nil
	case "deny":
		return DecisionDeny, nil
	default:
		return DecisionAllow, fmt.Errorf("invalid decision %q: must be allow, ask, or deny", s)
	}
}
