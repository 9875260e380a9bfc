// Package permission implements glob-rule based permission evaluation for
// tool capabilities.
package permission

import (
	"fmt"
	"strings"
)

// Capability classifies the category of effect a tool can have. It is the
// unit of permission evaluation: rules are keyed by capability, and a tool
// declares exactly one.
type Capability int

const (
	// CapabilityNone marks tools with no external effect (never gated).
	CapabilityNone Capability = iota
	// CapabilityRead covers filesystem reads inside the workspace.
	CapabilityRead
	// CapabilityWrite covers filesystem writes inside the workspace.
	CapabilityWrite
	// CapabilityBash covers subprocess execution.
	CapabilityBash
	// CapabilityNetwork covers outbound network access.
	CapabilityNetwork
	// CapabilityExternalDirectory covers filesystem access outside the
	// workspace root.
	CapabilityExternalDirectory
)

// String returns the string representation of a Capability.
func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "none"
	case CapabilityRead:
		return "read"
	case CapabilityWrite:
		return "write"
	case CapabilityBash:
		return "bash"
	case CapabilityNetwork:
		return "network"
	case CapabilityExternalDirectory:
		return "external_directory"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// Sensitive reports whether an unmatched target defaults to ask rather than
// allow for this capability.
func (c Capability) Sensitive() bool {
	switch c {
	case CapabilityBash, CapabilityWrite, CapabilityExternalDirectory:
		return true
	default:
		return false
	}
}

// ParseCapability parses a string into a Capability.
// Accepted values: "none", "read", "write", "bash", "network",
// "external_directory" (case-insensitive).
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(s) {
	case "none":
		return CapabilityNone, nil
	case "read":
		return CapabilityRead, nil
	case "write":
		return CapabilityWrite, nil
	case "bash":
		return CapabilityBash, nil
	case "network":
		return CapabilityNetwork, nil
	case "external_directory":
		return CapabilityExternalDirectory, nil
	default:
		return CapabilityNone, fmt.Errorf("invalid capability %q", s)
	}
}
