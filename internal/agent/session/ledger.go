package session

import (
	"sync"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// Ledger is the ordered, append-only conversation.
type Ledger struct {
	mu    sync.RWMutex
	turns []model.Turn
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(turn model.Turn) {
	l.mu.Lock()
	l.turns = append(l.turns, turn)
	l.mu.Unlock()
}

// Snapshot returns a copy that later appends do not affect.
func (l *Ledger) Snapshot() []model.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return CloneTurns(l.turns)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

func (l *Ledger) Clear() {
	l.mu.Lock()
	l.turns = nil
	l.mu.Unlock()
}

func (l *Ledger) Restore(turns []model.Turn) {
	l.mu.Lock()
	l.turns = CloneTurns(turns)
	l.mu.Unlock()
}

// CloneTurns copies turns together with their source and chunk slices.
func CloneTurns(turns []model.Turn) []model.Turn {
	if turns == nil {
		return nil
	}
	out := make([]model.Turn, len(turns))
	for i, t := range turns {
		t.Sources = append([]model.Source(nil), t.Sources...)
		t.RetrievedChunks = append([]model.Chunk(nil), t.RetrievedChunks...)
		out[i] = t
	}
	return out
}
