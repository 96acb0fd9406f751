package state

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded snapshots in process memory. Snapshots are stored
// as bytes so callers never share a SessionState between turns.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte, 1)}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	key, err := sessionKey(defaultStoreKeyPrefix, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	raw, ok := s.sessions[key]
	s.mu.Unlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeSessionState(raw)
}

func (s *MemoryStore) Save(ctx context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	key, err := sessionKey(defaultStoreKeyPrefix, st.SessionID)
	if err != nil {
		return err
	}
	payload, err := encodeSessionState(st)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[key] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	key, err := sessionKey(defaultStoreKeyPrefix, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
	return nil
}
