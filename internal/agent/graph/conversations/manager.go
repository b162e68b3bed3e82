package conversations

import (
	"strings"

	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// HistoryManager turns ledger snapshots into model context.
type HistoryManager struct {
	maxTurns int
}

// NewHistoryManager bounds context to the last maxTurns prior turns; 0 keeps
// the whole history.
func NewHistoryManager(maxTurns int) *HistoryManager {
	return &HistoryManager{maxTurns: maxTurns}
}

// Prior returns the turns before the in-flight user query. A trailing user
// turn is the query itself and is dropped.
func (m *HistoryManager) Prior(history []model.Turn) []model.Turn {
	if n := len(history); n > 0 && history[n-1].Role == model.RoleUser {
		history = history[:n-1]
	}
	return trimTail(history, m.maxTurns)
}

// Recent bounds the whole history, in-flight query included.
func (m *HistoryManager) Recent(history []model.Turn) []model.Turn {
	return trimTail(history, m.maxTurns)
}

// Transcript renders turns as "role: text" lines.
func (m *HistoryManager) Transcript(turns []model.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Text)
	}
	return b.String()
}

// Contents builds a chat request: the prior turns of history followed by
// query as the latest user message.
func (m *HistoryManager) Contents(history []model.Turn, query string) []*genai.Content {
	prior := m.Prior(history)
	contents := make([]*genai.Content, 0, len(prior)+1)
	for _, t := range prior {
		if t.Text == "" {
			continue
		}
		var role genai.Role = genai.RoleUser
		if t.Role == model.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return append(contents, genai.NewContentFromText(query, genai.RoleUser))
}

func trimTail(turns []model.Turn, maxTurns int) []model.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return append([]model.Turn(nil), turns...)
	}
	return append([]model.Turn(nil), turns[len(turns)-maxTurns:]...)
}
