package history

import (
	"fmt"
	"sync"
)

// Store is an in-memory conversation log for one session. It is safe for
// concurrent use; Optimize results replace the log atomically.
type Store struct {
	mu        sync.RWMutex
	messages  []Message
	estimator Estimator
}

// NewStore creates an empty store using the given token estimator; nil
// falls back to DefaultEstimator.
func NewStore(estimator Estimator) *Store {
	if estimator == nil {
		estimator = DefaultEstimator
	}
	return &Store{estimator: estimator}
}

// Append adds a message to the end of the log.
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the log.
func (s *Store) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Stats reports token usage for the current log against a budget.
func (s *Store) Stats(budget int) ContextStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats(s.messages, budget, s.estimator)
}

// DropLastNUserTurns removes the trailing portion of the log starting at
// the nth-from-last user message, for undo.
func (s *Store) DropLastNUserTurns(n int) error {
	if n <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userTurnsFound := 0
	cutIndex := len(s.messages)
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleUser {
			userTurnsFound++
			if userTurnsFound == n {
				cutIndex = i
				break
			}
		}
	}

	if userTurnsFound < n {
		return fmt.Errorf("only %d user turns found, cannot drop %d", userTurnsFound, n)
	}

	s.messages = s.messages[:cutIndex]
	return nil
}

// Reduce runs the given strategy over the log when it exceeds the budget
// and replaces the log with the result. The reduced log is returned even
// when the budget stays unsatisfiable.
func (s *Store) Reduce(strategy Strategy, budget int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reduced, err := OptimizeWithOptions(s.messages, strategy, budget, s.estimator, DefaultOptions())
	if reduced != nil {
		s.messages = reduced
	}
	return s.messages, err
}
