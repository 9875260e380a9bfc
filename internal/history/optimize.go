package history

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how an overflowing conversation is reduced. The choice is
// configuration supplied by the caller, never decided here.
type Strategy int

const (
	// StrategyPrune drops the oldest non-system messages from the front
	// until the remainder fits, protecting a recent-token allowance.
	StrategyPrune Strategy = iota
	// StrategyCompact replaces everything but the system message and the
	// most recent turns with one synthetic summary message.
	StrategyCompact
	// StrategyMiddleOut keeps a fixed head and tail and collapses the
	// middle into a placeholder naming what was elided.
	StrategyMiddleOut
)

// String returns the string representation of a Strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyPrune:
		return "prune"
	case StrategyCompact:
		return "compact"
	case StrategyMiddleOut:
		return "middle-out"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "prune":
		return StrategyPrune, nil
	case "compact":
		return StrategyCompact, nil
	case "middle-out", "middleout":
		return StrategyMiddleOut, nil
	default:
		return StrategyPrune, fmt.Errorf("invalid strategy %q", s)
	}
}

// Reduction knobs.
const (
	// PruneProtectTokens is the trailing token allowance prune never drops into.
	PruneProtectTokens = 40_000
	// CompactKeepRecent is how many trailing messages compaction preserves verbatim.
	CompactKeepRecent = 3
	// MiddleOutKeepStart preserves the system message plus initial task framing.
	MiddleOutKeepStart = 2
	// MiddleOutKeepEnd preserves recent context.
	MiddleOutKeepEnd = 4
)

// ErrBudgetUnsatisfiable reports that even the protected portion of the
// conversation exceeds the budget. The accompanying message slice is the
// smallest producible sequence (system message plus the most recent
// message); callers must handle this degraded case explicitly.
var ErrBudgetUnsatisfiable = errors.New("context budget unsatisfiable even after reduction")

// Options overrides the reduction defaults.
type Options struct {
	ProtectTokens int // prune: trailing token allowance
	KeepRecent    int // compact: trailing messages kept verbatim
	KeepStart     int // middle-out: leading messages kept
	KeepEnd       int // middle-out: trailing messages kept
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ProtectTokens: PruneProtectTokens,
		KeepRecent:    CompactKeepRecent,
		KeepStart:     MiddleOutKeepStart,
		KeepEnd:       MiddleOutKeepEnd,
	}
}

// Optimize reduces messages with the given strategy until they fit budget.
// It never reorders messages and never removes a system message at index 0.
// A sequence already within budget is returned unchanged, which also makes
// Optimize idempotent once its output fits. If even the retained portion
// exceeds the budget the degraded minimum is returned together with
// ErrBudgetUnsatisfiable.
func Optimize(messages []Message, strategy Strategy, budget int, est Estimator) ([]Message, error) {
	return OptimizeWithOptions(messages, strategy, budget, est, DefaultOptions())
}

// OptimizeWithOptions is Optimize with explicit reduction knobs.
func OptimizeWithOptions(messages []Message, strategy Strategy, budget int, est Estimator, opts Options) ([]Message, error) {
	if est == nil {
		est = DefaultEstimator
	}
	if !Stats(messages, budget, est).IsOverflow {
		return messages, nil
	}

	var reduced []Message
	switch strategy {
	case StrategyCompact:
		reduced = compact(messages, opts.KeepRecent)
	case StrategyMiddleOut:
		reduced = middleOut(messages, opts.KeepStart, opts.KeepEnd)
	default:
		reduced = prune(messages, budget, est, opts.ProtectTokens)
	}

	if Stats(reduced, budget, est).IsOverflow {
		return degraded(messages), ErrBudgetUnsatisfiable
	}
	return reduced, nil
}

// prune drops the oldest non-system messages from the front until the
// remainder fits, never dropping into the protected trailing allowance.
func prune(messages []Message, budget int, est Estimator, protect int) []Message {
	var head []Message
	rest := messages
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		head = messages[:1]
		rest = messages[1:]
	}

	// The protected boundary: the oldest trailing message within the
	// recent-token allowance. Nothing at or after it may be dropped.
	protectedFrom := len(rest)
	tokens := 0
	for i := len(rest) - 1; i >= 0; i-- {
		tokens += rest[i].Tokens(est)
		if tokens > protect {
			break
		}
		protectedFrom = i
	}

	total := Stats(messages, budget, est).TotalTokens
	drop := 0
	for drop < protectedFrom && total > budget {
		total -= rest[drop].Tokens(est)
		drop++
	}

	result := make([]Message, 0, len(head)+len(rest)-drop)
	result = append(result, head...)
	result = append(result, rest[drop:]...)
	return result
}

// compact replaces everything except the system message and the last
// keepRecent messages with one synthetic summary message at the position of
// the removed block.
func compact(messages []Message, keepRecent int) []Message {
	var head []Message
	rest := messages
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		head = messages[:1]
		rest = messages[1:]
	}
	if len(rest) <= keepRecent {
		return messages
	}

	removed := len(rest) - keepRecent
	summary := Message{
		Role:      RoleSystem,
		Content:   fmt.Sprintf("Context summary: %d earlier messages were summarized to reclaim context space.", removed),
		Synthetic: true,
	}

	result := make([]Message, 0, len(head)+1+keepRecent)
	result = append(result, head...)
	result = append(result, summary)
	result = append(result, rest[len(rest)-keepRecent:]...)
	return result
}

// middleOut keeps keepStart leading and keepEnd trailing messages and
// collapses everything strictly between them into a placeholder stating how
// many messages and what span were elided.
func middleOut(messages []Message, keepStart, keepEnd int) []Message {
	if len(messages) <= keepStart+keepEnd {
		return messages
	}

	elided := len(messages) - keepStart - keepEnd
	placeholder := Message{
		Role: RoleSystem,
		Content: fmt.Sprintf("[%d messages elided (positions %d-%d) to fit the context window]",
			elided, keepStart+1, len(messages)-keepEnd),
		Synthetic: true,
	}

	result := make([]Message, 0, keepStart+1+keepEnd)
	result = append(result, messages[:keepStart]...)
	result = append(result, placeholder)
	result = append(result, messages[len(messages)-keepEnd:]...)
	return result
}

// degraded returns the smallest producible sequence: the system message (if
// present) plus the most recent message.
func degraded(messages []Message) []Message {
	if len(messages) == 0 {
		return nil
	}
	last := messages[len(messages)-1]
	if messages[0].Role == RoleSystem && len(messages) > 1 {
		return []Message{messages[0], last}
	}
	return []Message{last}
}
