package mcp

import (
	"sync"

	"go.uber.org/zap"
)

// Store keeps one Manager per session so concurrent sessions never share
// client connections. Created once at host startup.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Manager
	logger   *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions: make(map[string]*Manager),
		logger:   logger,
	}
}

// GetOrCreate returns the session's manager, creating it if needed.
func (s *Store) GetOrCreate(sessionID string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mgr, ok := s.sessions[sessionID]; ok {
		return mgr
	}
	mgr := NewManager(s.logger)
	s.sessions[sessionID] = mgr
	return mgr
}

// Get returns the manager for a session, or nil.
func (s *Store) Get(sessionID string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID]
}

// Remove closes and removes the session's manager.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	mgr, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if ok {
		mgr.Close()
		s.logger.Debug("cleaned up MCP session", zap.String("session", sessionID))
	}
}

// Count returns the number of active sessions.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
