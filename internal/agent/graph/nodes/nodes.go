package nodes

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/session"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

// Node keys.
const (
	NodeRefine         = "query_refinement"
	NodeRefineFeedback = "feedback_refinement"
	NodePreAnalysis    = "contextual_pre_analysis"
	NodeRetrieve       = "dynamic_retrieval"
	NodeGenerate       = "response_generation"
	NodeEnhance        = "web_enhancement"
	NodeEvaluate       = "sufficiency_evaluation"
	NodeFinalize       = "final_output"
	NodeSuspend        = "await_human_input"
)

// Deps is what the pipeline nodes read and write. Nodes never touch the
// workflow phase, the ledger or the pending decision; they report through the
// pass they return.
type Deps struct {
	Oracle           oracle.Oracle
	Registry         *session.Registry
	Log              *session.Log
	Chunks           *session.ChunkStore
	Threshold        int
	PreAnalysisDelay time.Duration
}

// NewRefineNode rewrites the raw query into a standalone query.
func NewRefineNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		d.Log.Append("Agent 1 [Query Refinement] starting...")
		d.Registry.SetStatus(model.StageQueryRefinement, model.StatusRunning)

		refined, err := d.Oracle.RefineQuery(ctx, p.OriginalQuery, p.History)
		if err != nil {
			return nil, fail(ctx, err)
		}
		p.RefinedQuery = refined
		d.Registry.SetOutput(model.StageQueryRefinement, model.StatusCompleted, "Refined Query: "+refined)
		d.Log.Appendf("Agent 1 [Query Refinement] completed. New query: \"%s\"", refined)
		return p, nil
	})
}

// NewRefineFeedbackNode rewrites the original query using human feedback and
// the justification of the low score.
func NewRefineFeedbackNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		d.Log.Append("Refining query based on human feedback...")
		d.Registry.SetStatus(model.StageQueryRefinement, model.StatusRunning)

		refined, err := d.Oracle.RefineQueryWithFeedback(ctx, p.OriginalQuery, p.History, p.Feedback, p.Justification)
		if err != nil {
			return nil, fail(ctx, err)
		}
		p.RefinedQuery = refined
		d.Registry.SetOutput(model.StageQueryRefinement, model.StatusCompleted, "Refined Query: "+refined)
		d.Log.Appendf("Query refined to: \"%s\"", refined)
		return p, nil
	})
}

// NewPreAnalysisNode is a simulated analysis step that only waits.
func NewPreAnalysisNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		d.Log.Append("Agent 2 [Contextual Pre-Analysis] starting...")
		d.Registry.SetStatus(model.StageContextualPreAnalysis, model.StatusRunning)
		if err := sleep(ctx, d.PreAnalysisDelay); err != nil {
			return nil, fail(ctx, err)
		}
		d.Registry.SetOutput(model.StageContextualPreAnalysis, model.StatusCompleted, "Identified key entities to guide retrieval.")
		d.Log.Append("Agent 2 [Contextual Pre-Analysis] completed.")
		return p, nil
	})
}

// NewRetrieveNode ranks the chunk store against the refined query. Web search
// is used exactly when no internal chunk was found. On a first pass the stage
// stays running until generation has reported its sources.
func NewRetrieveNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		if p.Remedial {
			d.Log.Append("Re-running retrieval with refined query...")
		} else {
			d.Log.Append("Agent 3 [Dynamic Retrieval] starting...")
		}
		d.Registry.SetStatus(model.StageDynamicRetrieval, model.StatusRunning)

		var found []model.Chunk
		if all := d.Chunks.All(); len(all) > 0 {
			if !p.Remedial {
				d.Log.Append("Searching local knowledge base...")
			}
			ranked, err := d.Oracle.RankRelevantChunks(ctx, p.RefinedQuery, all)
			if err != nil {
				return nil, fail(ctx, err)
			}
			found = ranked
			if !p.Remedial {
				if len(found) > 0 {
					d.Log.Appendf("Found %d relevant chunk(s) in your documents.", len(found))
				} else {
					d.Log.Append("No relevant information found in your documents for this query.")
				}
			}
		}

		p.Chunks = found
		p.InternalContext = BuildInternalContext(found)
		p.UseWebSearch = len(found) == 0

		if p.Remedial {
			d.Registry.SetOutput(model.StageDynamicRetrieval, model.StatusCompleted,
				fmt.Sprintf("Retrieved %d chunks, web search: %t", len(found), p.UseWebSearch))
			return p, nil
		}

		summary := ""
		if len(found) > 0 {
			summary = fmt.Sprintf("Retrieved %d internal chunk(s). ", len(found))
		}
		if p.UseWebSearch {
			summary += "External web search initiated."
			d.Log.Append("Internal context insufficient, proceeding with web search.")
		} else {
			summary += "Skipping external web search."
		}
		p.RetrievalSummary = summary
		return p, nil
	})
}

// NewGenerateNode drafts the answer from history, internal context and,
// when retrieval asked for it, web search.
func NewGenerateNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		if p.Remedial {
			d.Log.Append("Generating new response...")
		} else {
			d.Log.Append("Agent 4 [Response Generation] starting...")
		}
		d.Registry.SetStatus(model.StageResponseGeneration, model.StatusRunning)

		gen, err := d.Oracle.GenerateAnswer(ctx, p.RefinedQuery, p.History, p.InternalContext, p.UseWebSearch)
		if err != nil {
			return nil, fail(ctx, err)
		}
		p.Response = gen.Text
		p.Sources = gen.Sources

		if p.Remedial {
			d.Registry.SetOutput(model.StageResponseGeneration, model.StatusCompleted, "Enhanced response generated.")
			return p, nil
		}

		summary := p.RetrievalSummary
		if p.UseWebSearch {
			summary += fmt.Sprintf(" Found %d web source(s).", len(gen.Sources))
		}
		d.Registry.SetOutput(model.StageDynamicRetrieval, model.StatusCompleted, summary)
		d.Log.Append("Agent 3 [Dynamic Retrieval] completed.")
		d.Registry.SetOutput(model.StageResponseGeneration, model.StatusCompleted, "Initial response draft generated.")
		d.Log.Append("Agent 4 [Response Generation] completed.")
		return p, nil
	})
}

// NewEnhanceNode extends the current answer with web search while keeping the
// internal chunks that backed it.
func NewEnhanceNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		d.Log.Append("Enhancing response with web search...")
		d.Registry.SetStatus(model.StageDynamicRetrieval, model.StatusRunning)
		d.Registry.SetStatus(model.StageResponseGeneration, model.StatusRunning)

		gen, err := d.Oracle.EnhanceWithWebSearch(ctx, p.Response, p.RefinedQuery, p.History, p.InternalContext)
		if err != nil {
			return nil, fail(ctx, err)
		}
		p.Response = gen.Text
		p.Sources = gen.Sources
		p.UseWebSearch = true

		d.Registry.SetOutput(model.StageDynamicRetrieval, model.StatusCompleted,
			fmt.Sprintf("Web search completed, found %d sources.", len(gen.Sources)))
		d.Registry.SetOutput(model.StageResponseGeneration, model.StatusCompleted, "Response enhanced with web search.")
		return p, nil
	})
}

// NewEvaluateNode scores the current answer against the original query.
func NewEvaluateNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		if p.Remedial {
			d.Log.Append("Agent 5 [Sufficiency Evaluation] re-evaluating enhanced response...")
		} else {
			d.Log.Append("Agent 5 [Sufficiency Evaluation] starting...")
		}
		d.Registry.SetStatus(model.StageSufficiencyEvaluation, model.StatusRunning)

		eval, err := d.Oracle.EvaluateSufficiency(ctx, p.OriginalQuery, p.Response, p.History)
		if err != nil {
			return nil, fail(ctx, err)
		}
		p.Evaluation = &eval

		if p.Remedial {
			d.Registry.SetOutput(model.StageSufficiencyEvaluation, model.StatusCompleted,
				fmt.Sprintf("Re-evaluation Confidence: %d%%. Justification: %s", eval.ConfidenceScore, eval.Justification))
			d.Log.Appendf("Agent 5 [Sufficiency Evaluation] re-evaluation completed. New confidence: %d%%.", eval.ConfidenceScore)
		} else {
			d.Registry.SetOutput(model.StageSufficiencyEvaluation, model.StatusCompleted,
				fmt.Sprintf("Confidence: %d%%. Justification: %s", eval.ConfidenceScore, eval.Justification))
			d.Log.Appendf("Agent 5 [Sufficiency Evaluation] completed. Confidence: %d%%.", eval.ConfidenceScore)
		}
		return p, nil
	})
}

// NewSufficiencyCondition routes to the final output when the score reaches
// the threshold and to a human decision otherwise.
func NewSufficiencyCondition(d *Deps) func(context.Context, *model.Pass) (string, error) {
	return func(ctx context.Context, p *model.Pass) (string, error) {
		if p.Evaluation == nil {
			return "", fail(ctx, fmt.Errorf("sufficiency branch: pass has no evaluation"))
		}
		score := p.Evaluation.ConfidenceScore
		logx.Debug().Int("confidence", score).Int("threshold", d.Threshold).Bool("remedial", p.Remedial).
			Msg("Evaluating sufficiency")

		if score < d.Threshold {
			if p.Remedial {
				d.Log.Appendf("Re-evaluation confidence still below %d%%. Offering another round of human intervention...", d.Threshold)
			} else {
				d.Log.Appendf("Confidence below %d%%. Initiating human-in-the-loop process...", d.Threshold)
			}
			return NodeSuspend, nil
		}
		if p.Remedial {
			d.Log.Appendf("Re-evaluation confidence is now acceptable (%d%% >= %d%%). Proceeding to final output.", score, d.Threshold)
		} else {
			d.Log.Append("Confidence is high. Proceeding to final output.")
		}
		return NodeFinalize, nil
	}
}

// NewSuspendNode freezes the pass into a pending decision. The finalize stage
// is not entered.
func NewSuspendNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		p.Decision = &model.PendingDecision{
			CurrentResponse:  p.Response,
			Confidence:       p.Evaluation.ConfidenceScore,
			Justification:    p.Evaluation.Justification,
			AvailableActions: slices.Clone(model.AllActions),
			OriginalQuery:    p.OriginalQuery,
			RefinedQuery:     p.RefinedQuery,
			InternalContext:  p.InternalContext,
			ChatHistory:      session.CloneTurns(p.History),
			Sources:          slices.Clone(p.Sources),
			RetrievedChunks:  slices.Clone(p.Chunks),
		}
		return p, nil
	})
}

// NewFinalizeNode packages the answer with its evidence into a model turn.
func NewFinalizeNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, p *model.Pass) (*model.Pass, error) {
		if p.Remedial {
			d.Log.Append("Agent 6 [Final Output] preparing enhanced response...")
		} else {
			d.Log.Append("Agent 6 [Final Output] preparing response...")
		}
		d.Registry.SetStatus(model.StageFinalOutput, model.StatusRunning)

		turn := model.NewModelTurn(p.Response, slices.Clone(p.Sources), slices.Clone(p.Chunks))
		p.Turn = &turn

		if p.Remedial {
			d.Registry.SetOutput(model.StageFinalOutput, model.StatusCompleted, "Enhanced response delivered.")
		} else {
			d.Registry.SetOutput(model.StageFinalOutput, model.StatusCompleted, "Response formatted and delivered.")
		}
		return p, nil
	})
}
