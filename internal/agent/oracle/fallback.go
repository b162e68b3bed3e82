package oracle

import (
	"context"
	"strings"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

// EvaluationFallback is returned when the sufficiency evaluation fails. It is
// low enough to force a human decision under any sane threshold.
var EvaluationFallback = model.Evaluation{ConfidenceScore: 30, Justification: "evaluation failed"}

type fallbackOracle struct {
	Oracle
}

// WithFallbacks wraps o so that ranking and evaluation never fail: ranking
// degrades to KeywordFilter and evaluation to EvaluationFallback. Every other
// operation is passed through unchanged.
func WithFallbacks(o Oracle) Oracle {
	if f, ok := o.(*fallbackOracle); ok {
		return f
	}
	return &fallbackOracle{Oracle: o}
}

func (f *fallbackOracle) RankRelevantChunks(ctx context.Context, query string, chunks []model.Chunk) ([]model.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	ranked, err := f.Oracle.RankRelevantChunks(ctx, query, chunks)
	if err != nil {
		logx.Warn().Err(err).Str("operation", OpRankRelevantChunks).Msg("ranking failed, falling back to keyword filter")
		return KeywordFilter(query, chunks), nil
	}
	return ranked, nil
}

func (f *fallbackOracle) EvaluateSufficiency(ctx context.Context, originalQuery, answer string, history []model.Turn) (model.Evaluation, error) {
	eval, err := f.Oracle.EvaluateSufficiency(ctx, originalQuery, answer, history)
	if err != nil {
		logx.Warn().Err(err).Str("operation", OpEvaluateSufficiency).Msg("evaluation failed, using fallback score")
		return EvaluationFallback, nil
	}
	return eval, nil
}

// KeywordFilter keeps the chunks whose lowercased content contains at least
// one whitespace-separated token of the lowercased query.
func KeywordFilter(query string, chunks []model.Chunk) []model.Chunk {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil
	}
	var out []model.Chunk
	for _, c := range chunks {
		content := strings.ToLower(c.Content)
		for _, k := range keywords {
			if strings.Contains(content, k) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
