package parsers

import (
	"strings"
	"testing"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRankResponse(t *testing.T) {
	chunks := []model.Chunk{{ID: "a-0"}, {ID: "a-1"}, {ID: "b-0"}}

	got, err := ParseRankResponse(`{"relevantChunkIds": ["b-0", "a-0", "zzz"]}`, chunks)
	require.NoError(t, err)
	assert.Equal(t, []model.Chunk{{ID: "a-0"}, {ID: "b-0"}}, got)

	got, err = ParseRankResponse("```json\n{\"relevantChunkIds\": []}\n```", chunks)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseRankResponse("not json", chunks)
	assert.Error(t, err)
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    model.Evaluation
		wantErr bool
	}{
		{"plain", `{"confidenceScore": 82, "justification": "Covers the question."}`, model.Evaluation{ConfidenceScore: 82, Justification: "Covers the question."}, false},
		{"missing justification", `{"confidenceScore": 60}`, model.Evaluation{ConfidenceScore: 60, Justification: NoJustification}, false},
		{"missing score", `{"justification": "?"}`, model.Evaluation{ConfidenceScore: 0, Justification: "?"}, false},
		{"clamped high", `{"confidenceScore": 140, "justification": "x"}`, model.Evaluation{ConfidenceScore: 100, Justification: "x"}, false},
		{"clamped low", `{"confidenceScore": -3, "justification": "x"}`, model.Evaluation{ConfidenceScore: 0, Justification: "x"}, false},
		{"fenced", "```\n{\"confidenceScore\": 75.4, \"justification\": \"ok\"}\n```", model.Evaluation{ConfidenceScore: 75, Justification: "ok"}, false},
		{"empty", "  ", model.Evaluation{}, true},
		{"too large", strings.Repeat("x", maxContentLen+1), model.Evaluation{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvaluation(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRefinedQuery(t *testing.T) {
	q, err := ParseRefinedQuery("  what is the go scheduler?\n")
	require.NoError(t, err)
	assert.Equal(t, "what is the go scheduler?", q)

	_, err = ParseRefinedQuery("\n")
	assert.Error(t, err)
}
