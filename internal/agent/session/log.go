package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/rs/zerolog"
)

// Log is the append-only trace of orchestration decisions. Entries are
// mirrored to the structured logger.
type Log struct {
	mu      sync.Mutex
	entries []model.LogEntry
	now     func() time.Time
	logger  zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{now: time.Now, logger: logger}
}

func (l *Log) Append(message string) {
	entry := model.LogEntry{Timestamp: l.now(), Message: message}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	l.logger.Debug().Msg(message)
}

func (l *Log) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the trace.
func (l *Log) Entries() []model.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.LogEntry(nil), l.entries...)
}

// Clear drops every entry; only a full session reset does this.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

func (l *Log) Restore(entries []model.LogEntry) {
	l.mu.Lock()
	l.entries = append([]model.LogEntry(nil), entries...)
	l.mu.Unlock()
}
