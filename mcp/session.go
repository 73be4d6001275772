package mcp

import (
	"fmt"
	"sync"
)

// Session tracks habits surfaced during an MCP session. Habit ids are
// long ULIDs, so agents get short session references (H1, H2, H3...)
// to name them in follow-up tool calls.
type Session struct {
	mu      sync.Mutex
	refs    map[string]string // session ref (H1, H2) -> habit id
	reverse map[string]string // habit id -> session ref
	counter int
}

// NewSession creates a new session tracker.
func NewSession() *Session {
	return &Session{
		refs:    make(map[string]string),
		reverse: make(map[string]string),
	}
}

// Track adds a habit to the session and returns its session reference.
// Tracking the same habit again returns the existing ref.
func (s *Session) Track(habitID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref, ok := s.reverse[habitID]; ok {
		return ref
	}

	s.counter++
	ref := fmt.Sprintf("H%d", s.counter)
	s.refs[ref] = habitID
	s.reverse[habitID] = ref
	return ref
}

// Resolve converts a session reference to a habit id.
// Returns false if the ref doesn't exist in this session.
func (s *Session) Resolve(ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.refs[ref]
	return id, ok
}

// All returns a copy of all tracked session entries.
func (s *Session) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]string, len(s.refs))
	for ref, id := range s.refs {
		result[ref] = id
	}
	return result
}

// Clear resets the session tracking, including the counter.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs = make(map[string]string)
	s.reverse = make(map[string]string)
	s.counter = 0
}
