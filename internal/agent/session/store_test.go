package session

import (
	"strings"
	"testing"
	"time"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_SnapshotIsIsolated(t *testing.T) {
	l := NewLedger()
	l.Append(model.NewUserTurn("first"))
	snap := l.Snapshot()

	l.Append(model.NewModelTurn("answer", []model.Source{{URI: "https://a", Title: "A"}}, nil))

	assert.Len(t, snap, 1)
	assert.Equal(t, 2, l.Len())

	snap2 := l.Snapshot()
	snap2[1].Sources[0].Title = "changed"
	assert.Equal(t, "A", l.Snapshot()[1].Sources[0].Title)
}

func TestLedger_RestoreAndClear(t *testing.T) {
	l := NewLedger()
	turns := []model.Turn{model.NewUserTurn("q"), model.NewModelTurn("a", nil, nil)}
	l.Restore(turns)
	assert.Equal(t, turns[0].ID, l.Snapshot()[0].ID)

	l.Clear()
	assert.Zero(t, l.Len())
}

func TestLog_AppendAndClear(t *testing.T) {
	l := NewLog(zerolog.Nop())
	fixed := time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	l.Append("Human action: search_web")
	l.Appendf("Retrieved %d chunk(s).", 3)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "13:04:05: Human action: search_web", entries[0].String())
	assert.Equal(t, "Retrieved 3 chunk(s).", entries[1].Message)

	l.Clear()
	assert.Empty(t, l.Entries())
}

func TestChunkStore_ReplaceNeverMerges(t *testing.T) {
	s := NewChunkStore()
	s.Replace([]model.Chunk{{ID: "a-0"}, {ID: "a-1"}})
	s.Replace([]model.Chunk{{ID: "b-0"}})

	assert.Equal(t, []model.Chunk{{ID: "b-0"}}, s.All())
	s.Clear()
	assert.Zero(t, s.Len())
}

func TestChunkStore_MatchContext(t *testing.T) {
	long := strings.Repeat("x", 100) + "tail only in the stored chunk"
	s := NewChunkStore()
	s.Replace([]model.Chunk{
		{ID: "f-0", Content: "Alpha facts", SourceFile: "f"},
		{ID: "f-1", Content: "Beta facts", SourceFile: "f"},
		{ID: "g-0", Content: long, SourceFile: "g"},
	})

	ctx := "Source File: f\nContent: Alpha facts\n---\nSource File: g\nContent: " + strings.Repeat("x", 100)
	got := s.MatchContext(ctx)

	require.Len(t, got, 2)
	assert.Equal(t, "f-0", got[0].ID)
	assert.Equal(t, "g-0", got[1].ID)
	assert.Empty(t, s.MatchContext(""))
}

func TestRunePrefix(t *testing.T) {
	assert.Equal(t, "héé", runePrefix("héééé", 3))
	assert.Equal(t, "ab", runePrefix("ab", 5))
}
