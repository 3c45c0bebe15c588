package session

import (
	"sync"

	"gqlgate/cmd/security/token"
)

// Store is the set of valid session tokens.
//
// Implementations must be safe for concurrent Insert and Contains.
type Store interface {
	// Insert records tok as valid. Inserting an existing token is a no-op.
	Insert(tok string)

	// Contains reports whether tok was previously inserted.
	Contains(tok string) bool
}

// MemoryStore is a process-local Store keyed by token digest.
type MemoryStore struct {
	hasher token.Hasher

	mu     sync.RWMutex
	tokens map[string]struct{}
}

// NewMemoryStore constructs an empty store hashing tokens with hasher.
func NewMemoryStore(hasher token.Hasher) *MemoryStore {
	return &MemoryStore{
		hasher: hasher,
		tokens: make(map[string]struct{}),
	}
}

// Insert implements Store. Empty tokens are ignored.
func (s *MemoryStore) Insert(tok string) {
	if tok == "" {
		return
	}
	key := s.hasher.Hex(tok)

	s.mu.Lock()
	s.tokens[key] = struct{}{}
	s.mu.Unlock()
}

// Contains implements Store.
func (s *MemoryStore) Contains(tok string) bool {
	if tok == "" {
		return false
	}
	key := s.hasher.Hex(tok)

	s.mu.RLock()
	_, ok := s.tokens[key]
	s.mu.RUnlock()
	return ok
}

// Len returns the number of stored tokens.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
