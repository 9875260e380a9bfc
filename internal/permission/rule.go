package permission

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SpillPattern is the reserved pattern token that matches any path under the
// truncation spill directory. A ruleset built with a spill directory treats
// rules carrying this pattern as a prefix match against that directory, so
// previously-truncated output stays readable regardless of surrounding rules.
const SpillPattern = "match-truncation-spill"

// RuleSource identifies where a rule came from. Sources are ordered by
// precedence: defaults < agent < config < override. Precedence only breaks
// ties between equally specific patterns; a more specific pattern from a
// lower source still wins.
type RuleSource int

const (
	SourceDefaults RuleSource = iota
	SourceAgent
	SourceConfig
	SourceOverride
)

// String returns the string representation of a RuleSource.
func (s RuleSource) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceAgent:
		return "agent"
	case SourceConfig:
		return "config"
	case SourceOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Rule binds a capability and a glob pattern to a decision.
// Rules are immutable after construction; NewRule is the only constructor
// and rejects malformed globs so evaluation never fails.
type Rule struct {
	Capability Capability
	Pattern    string
	Decision   Decision
	Source     RuleSource

	specificity int
}

// NewRule validates the pattern and derives its specificity.
// Home-directory prefixes (~/, $HOME) in the pattern are expanded.
func NewRule(capability Capability, pattern string, decision Decision, source RuleSource) (Rule, error) {
	if pattern == "" {
		return Rule{}, &RuleError{Message: "pattern must not be empty"}
	}
	if pattern != SpillPattern {
		pattern = expandPattern(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return Rule{}, &RuleError{Message: "malformed glob pattern: " + pattern}
		}
	}
	return Rule{
		Capability:  capability,
		Pattern:     pattern,
		Decision:    decision,
		Source:      source,
		specificity: patternSpecificity(pattern),
	}, nil
}

// MustRule is NewRule for statically known patterns; panics on error.
func MustRule(capability Capability, pattern string, decision Decision, source RuleSource) Rule {
	r, err := NewRule(capability, pattern, decision, source)
	if err != nil {
		panic(err)
	}
	return r
}

// Match reports whether the rule's pattern matches the target.
// SpillPattern rules never match here; the ruleset resolves them against
// its spill directory.
func (r Rule) Match(target string) bool {
	if r.Pattern == SpillPattern {
		return false
	}
	ok, err := doublestar.Match(r.Pattern, target)
	return err == nil && ok
}

// Specificity returns the derived pattern specificity used for tie-breaking.
func (r Rule) Specificity() int {
	return r.specificity
}

// expandPattern expands a leading home-directory reference in a pattern.
func expandPattern(pattern string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return pattern
	}
	switch {
	case pattern == "~":
		return home
	case strings.HasPrefix(pattern, "~/"):
		return filepath.Join(home, pattern[2:])
	case pattern == "$HOME":
		return home
	case strings.HasPrefix(pattern, "$HOME/"):
		return filepath.Join(home, pattern[len("$HOME/"):])
	default:
		return pattern
	}
}

// patternSpecificity scores a pattern so evaluation can prefer the most
// specific match: exact paths beat any glob, deeper globs beat shallower
// ones, and a bare wildcard ranks last. Within a depth tier, each wildcard
// costs a point so "src/*.go" outranks "src/**".
func patternSpecificity(pattern string) int {
	if pattern == SpillPattern {
		// Resolved as an exact prefix of the spill directory.
		return 1 << 20
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		// Exact path: always outranks globs; longer paths are more exact.
		return (1 << 20) + len(pattern)
	}
	depth := strings.Count(pattern, "/") + 1
	score := depth * 100
	score -= strings.Count(pattern, "*")
	score -= 50 * strings.Count(pattern, "**")
	if score < 1 {
		score = 1
	}
	return score
}
