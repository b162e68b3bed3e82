package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/patrickmn/go-cache"
)

// MemorySessionStore keeps snapshots in process. Snapshots are stored as
// JSON so callers never share memory with the store.
type MemorySessionStore struct {
	cache *cache.Cache
}

func NewMemorySessionStore(ttl, cleanupInterval time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: cache.New(ttl, cleanupInterval)}
}

func (s *MemorySessionStore) Save(_ context.Context, sessionID string, state *model.SessionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	s.cache.SetDefault(sessionID, b)
	return nil
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) (*model.SessionState, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	var state model.SessionState
	if err := json.Unmarshal(v.([]byte), &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &state, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

var _ model.SessionStore = (*MemorySessionStore)(nil)
