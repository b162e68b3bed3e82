package ingest

import (
	"fmt"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// ChunkText splits text into fixed-size, non-overlapping character windows.
// The last window may be shorter. Ids are "<label>-<n>".
func ChunkText(text, label string, maxChars int) []model.Chunk {
	if maxChars <= 0 {
		maxChars = model.DefaultMaxChunkChars
	}
	runes := []rune(text)
	chunks := make([]model.Chunk, 0, (len(runes)+maxChars-1)/maxChars)
	for i, n := 0, 0; i < len(runes); i, n = i+maxChars, n+1 {
		end := min(i+maxChars, len(runes))
		chunks = append(chunks, model.Chunk{
			ID:         fmt.Sprintf("%s-%d", label, n),
			Content:    string(runes[i:end]),
			SourceFile: label,
		})
	}
	return chunks
}
