package permission

import (
	"path/filepath"
	"strings"
)

// Evaluation holds the result of evaluating a capability and target against
// a ruleset.
type Evaluation struct {
	// Decision is the decision of the winning rule, or the capability
	// default when no rule matched.
	Decision Decision
	// Rule is the winning rule; zero-valued when UsedFallback is true.
	Rule Rule
	// UsedFallback is true when no rule matched and the capability's
	// default decision was used.
	UsedFallback bool
}

// Ruleset is an ordered, read-only collection of rules merged from multiple
// sources. Evaluation is a pure function over it, so a ruleset may be shared
// by any number of concurrent callers.
type Ruleset struct {
	rules    []Rule
	spillDir string
}

// RulesetOption configures a ruleset at construction.
type RulesetOption func(*Ruleset)

// WithSpillDir designates the truncation spill directory. Read access to
// paths under it is always allowed, and SpillPattern rules resolve against it.
func WithSpillDir(dir string) RulesetOption {
	return func(rs *Ruleset) {
		rs.spillDir = filepath.Clean(dir)
	}
}

// NewRuleset builds a ruleset from already-validated rules. The slice is
// copied; later entries win specificity ties against earlier ones of the
// same source.
func NewRuleset(rules []Rule, opts ...RulesetOption) *Ruleset {
	rs := &Ruleset{rules: append([]Rule(nil), rules...)}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Merge returns a new ruleset holding this ruleset's rules followed by the
// given ones. The receiver is unchanged.
func (rs *Ruleset) Merge(rules ...Rule) *Ruleset {
	merged := make([]Rule, 0, len(rs.rules)+len(rules))
	merged = append(merged, rs.rules...)
	merged = append(merged, rules...)
	return &Ruleset{rules: merged, spillDir: rs.spillDir}
}

// Len returns the number of rules in the ruleset.
func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// Evaluate returns the decision for a capability and target.
//
// Spill-file reads are resolved first: if the target lies under the spill
// directory and the capability is read, the decision is allow no matter
// what other rules say. Otherwise the most specific matching rule wins;
// specificity ties break by source precedence, then by merge position
// (later wins). With no match the default is ask for sensitive
// capabilities and allow for the rest.
func (rs *Ruleset) Evaluate(capability Capability, target string) Evaluation {
	if capability == CapabilityRead && rs.underSpillDir(target) {
		return Evaluation{
			Decision: DecisionAllow,
			Rule:     Rule{Capability: CapabilityRead, Pattern: SpillPattern, Decision: DecisionAllow, Source: SourceDefaults},
		}
	}

	var (
		winner Rule
		found  bool
	)
	for _, r := range rs.rules {
		if r.Capability != capability {
			continue
		}
		if r.Pattern == SpillPattern {
			if !rs.underSpillDir(target) {
				continue
			}
		} else if !r.Match(target) {
			continue
		}
		// >= on both comparisons makes the later rule win exact ties.
		if !found ||
			r.specificity > winner.specificity ||
			(r.specificity == winner.specificity && r.Source >= winner.Source) {
			winner = r
			found = true
		}
	}
	if found {
		return Evaluation{Decision: winner.Decision, Rule: winner}
	}

	fallback := DecisionAllow
	if capability.Sensitive() {
		fallback = DecisionAsk
	}
	return Evaluation{Decision: fallback, UsedFallback: true}
}

// underSpillDir reports whether target is inside the spill directory.
func (rs *Ruleset) underSpillDir(target string) bool {
	if rs.spillDir == "" {
		return false
	}
	target = filepath.Clean(target)
	if target == rs.spillDir {
		return true
	}
	return strings.HasPrefix(target, rs.spillDir+string(filepath.Separator))
}

// DefaultRules returns the built-in baseline: spill files stay readable.
// Callers merge agent, config, and override rules on top.
func DefaultRules() []Rule {
	return []Rule{
		{Capability: CapabilityRead, Pattern: SpillPattern, Decision: DecisionAllow, Source: SourceDefaults, specificity: patternSpecificity(SpillPattern)},
	}
}
