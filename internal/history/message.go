// Package history manages conversation context: token accounting, overflow
// detection, and reduction strategies that keep an agent coherent when the
// conversation outgrows its budget.
package history

import "fmt"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn. The token count is computed once per
// estimator application and cached on the message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Synthetic marks messages manufactured by a reduction strategy
	// (compaction summaries, elision placeholders) so downstream consumers
	// can distinguish them from genuine turns.
	Synthetic bool `json:"synthetic,omitempty"`

	approxTokens int
}

// Tokens returns the message's estimated token count, computing and caching
// it on first use.
func (m *Message) Tokens(est Estimator) int {
	if m.approxTokens == 0 {
		m.approxTokens = est(m.Content)
	}
	return m.approxTokens
}

// Estimator converts text into an approximate token count. The exact method
// is supplied by the model/provider layer; reduction logic never depends on
// a particular choice.
type Estimator func(text string) int

// DefaultEstimator approximates four characters per token.
func DefaultEstimator(text string) int {
	return len(text) / 4
}

// ContextStats summarizes token usage of a message sequence against a budget.
type ContextStats struct {
	TotalTokens int
	Budget      int
	IsOverflow  bool
}

// Stats computes usage for the message sequence. Always safe to call; it
// never mutates ordering or content.
func Stats(messages []Message, budget int, est Estimator) ContextStats {
	if est == nil {
		est = DefaultEstimator
	}
	total := 0
	for i := range messages {
		total += messages[i].Tokens(est)
	}
	return ContextStats{
		TotalTokens: total,
		Budget:      budget,
		IsOverflow:  total > budget,
	}
}

// String renders stats for log output.
func (s ContextStats) String() string {
	return fmt.Sprintf("tokens=%d budget=%d overflow=%t", s.TotalTokens, s.Budget, s.IsOverflow)
}
