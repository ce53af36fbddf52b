package session

import (
	"context"
	"sync"
)

// Store owns all sessions. Update runs fn with exclusive access to the
// sender's session, creating a fresh one on first contact. Updates for the
// same sender serialize; distinct senders proceed concurrently. Sessions are
// never removed, only reset in place, so the map grows with the number of
// distinct senders seen over the process lifetime.
type Store interface {
	Update(ctx context.Context, senderID string, fn func(*Session) error) error
	Peek(ctx context.Context, senderID string) (Session, bool)
}

type memoryEntry struct {
	mu      sync.Mutex
	session Session
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) entry(senderID string) *memoryEntry {
	s.mu.RLock()
	e, ok := s.entries[senderID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[senderID]; ok {
		return e
	}
	e = &memoryEntry{}
	s.entries[senderID] = e
	return e
}

// Update runs fn under the sender's lock. An error from fn does not roll
// anything back; mutations fn already applied remain in place and the error
// is returned for the caller to act on.
func (s *MemoryStore) Update(ctx context.Context, senderID string, fn func(*Session) error) error {
	e := s.entry(senderID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.session)
}

// Peek returns a copy of the sender's session, if one exists.
func (s *MemoryStore) Peek(ctx context.Context, senderID string) (Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[senderID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, true
}

// Len reports how many distinct senders the store has seen.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
