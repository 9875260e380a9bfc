package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWith(messages ...Message) *Store {
	s := NewStore(nil)
	for _, m := range messages {
		s.Append(m)
	}
	return s
}

func TestStore_AppendAndMessages(t *testing.T) {
	s := storeWith(
		Message{Role: RoleSystem, Content: "sys"},
		Message{Role: RoleUser, Content: "hi"},
	)

	assert.Equal(t, 2, s.Len())
	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "sys", msgs[0].Content)

	// Messages returns a copy; mutating it must not affect the store.
	msgs[0].Content = "clobbered"
	assert.Equal(t, "sys", s.Messages()[0].Content)
}

func TestStore_Stats(t *testing.T) {
	s := storeWith(Message{Role: RoleUser, Content: "12345678"})
	stats := s.Stats(100)
	assert.Equal(t, 2, stats.TotalTokens) // len/4
	assert.Equal(t, 100, stats.Budget)
	assert.False(t, stats.IsOverflow)
}

func TestStore_DropLastNUserTurns(t *testing.T) {
	s := storeWith(
		Message{Role: RoleSystem, Content: "sys"},
		Message{Role: RoleUser, Content: "first"},
		Message{Role: RoleAssistant, Content: "reply one"},
		Message{Role: RoleUser, Content: "second"},
		Message{Role: RoleAssistant, Content: "reply two"},
	)

	require.NoError(t, s.DropLastNUserTurns(1))
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "reply one", msgs[2].Content)
}

func TestStore_DropLastNUserTurns_TooMany(t *testing.T) {
	s := storeWith(Message{Role: RoleUser, Content: "only one"})
	err := s.DropLastNUserTurns(2)
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestStore_DropLastNUserTurns_ZeroIsNoop(t *testing.T) {
	s := storeWith(Message{Role: RoleUser, Content: "x"})
	require.NoError(t, s.DropLastNUserTurns(0))
	assert.Equal(t, 1, s.Len())
}

func TestStore_ReduceReplacesLog(t *testing.T) {
	s := NewStore(func(text string) int { return len(text) })
	s.Append(Message{Role: RoleSystem, Content: "sys"})
	for i := 0; i < 20; i++ {
		s.Append(Message{Role: RoleUser, Content: fmt.Sprintf("message number %02d padding padding", i)})
	}

	before := s.Len()
	msgs, err := s.Reduce(StrategyCompact, 200)
	require.NoError(t, err)
	assert.Less(t, len(msgs), before)
	assert.Equal(t, len(msgs), s.Len(), "reduced log must replace the stored one")
	assert.Equal(t, RoleSystem, msgs[0].Role)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Append(Message{Role: RoleUser, Content: fmt.Sprintf("m%d", n)})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
