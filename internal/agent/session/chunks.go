package session

import (
	"strings"
	"sync"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// contextPrefixLen is how much of a chunk must appear verbatim in an internal
// context string for the chunk to count as part of it.
const contextPrefixLen = 100

// ChunkStore holds the knowledge base of the current session.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []model.Chunk
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

// Replace swaps the whole chunk set; ingestion never merges.
func (s *ChunkStore) Replace(chunks []model.Chunk) {
	s.mu.Lock()
	s.chunks = append([]model.Chunk(nil), chunks...)
	s.mu.Unlock()
}

func (s *ChunkStore) Clear() {
	s.Replace(nil)
}

// All returns a copy of the chunks in ingestion order.
func (s *ChunkStore) All() []model.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Chunk(nil), s.chunks...)
}

func (s *ChunkStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// MatchContext returns the chunks whose leading 100 characters appear in
// internalContext. This is a heuristic: chunks sharing a prefix over-match.
func (s *ChunkStore) MatchContext(internalContext string) []model.Chunk {
	if internalContext == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Chunk
	for _, c := range s.chunks {
		if strings.Contains(internalContext, runePrefix(c.Content, contextPrefixLen)) {
			out = append(out, c)
		}
	}
	return out
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
