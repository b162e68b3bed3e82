// Package oracle is the boundary to the language model backend. Every
// operation is stateless and never touches workflow state.
package oracle

import (
	"context"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// Operation names, used for logging and metrics labels.
const (
	OpRefineQuery             = "refine_query"
	OpRefineQueryWithFeedback = "refine_query_with_feedback"
	OpRankRelevantChunks      = "rank_relevant_chunks"
	OpGenerateAnswer          = "generate_answer"
	OpEnhanceWithWebSearch    = "enhance_with_web_search"
	OpEvaluateSufficiency     = "evaluate_sufficiency"
)

// User-facing messages for pipeline-fatal failures.
const (
	MsgRefineFailed         = "Failed to refine query."
	MsgRefineFeedbackFailed = "Failed to refine query with feedback."
	MsgGenerateFailed       = "Failed to generate response."
	MsgEnhanceFailed        = "Failed to enhance response with web search."
)

// Oracle performs the six model-backed operations of a workflow pass.
// history is the ledger snapshot of the pass; when its last turn is the
// in-flight user query, implementations treat it as the query rather than as
// prior context.
type Oracle interface {
	RefineQuery(ctx context.Context, originalQuery string, history []model.Turn) (string, error)
	RefineQueryWithFeedback(ctx context.Context, originalQuery string, history []model.Turn, feedback, justification string) (string, error)
	// RankRelevantChunks returns the relevant subsequence of chunks, in
	// their original order.
	RankRelevantChunks(ctx context.Context, query string, chunks []model.Chunk) ([]model.Chunk, error)
	GenerateAnswer(ctx context.Context, query string, history []model.Turn, internalContext string, useWebSearch bool) (model.Generation, error)
	EnhanceWithWebSearch(ctx context.Context, priorText, query string, history []model.Turn, internalContext string) (model.Generation, error)
	EvaluateSufficiency(ctx context.Context, originalQuery, answer string, history []model.Turn) (model.Evaluation, error)
}
