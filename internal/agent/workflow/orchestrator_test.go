package workflow_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle/oracletest"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/repo"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/workflow"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/ingest"
)

var lowScore = model.Evaluation{ConfidenceScore: 60, Justification: "Missing details."}

func newOrchestrator(t *testing.T, fake *oracletest.Fake, store model.SessionStore) *workflow.Orchestrator {
	t.Helper()
	o, err := workflow.New(context.Background(), "test-session", fake, workflow.Config{
		Workflow: model.WorkflowConfig{ConfidenceThreshold: 75},
		Store:    store,
	})
	require.NoError(t, err)
	return o
}

func textFile(name, content string) ingest.File {
	return ingest.File{Name: name, ContentType: "text/plain", Data: []byte(content)}
}

func logText(o *workflow.Orchestrator) string {
	var b strings.Builder
	for _, e := range o.State().Logs {
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}

func stage(o *workflow.Orchestrator, id model.StageID) model.StepRecord {
	for _, rec := range o.State().Agents {
		if rec.ID == id {
			return rec
		}
	}
	return model.StepRecord{}
}

func output(rec model.StepRecord) string {
	if rec.Output == nil {
		return ""
	}
	return *rec.Output
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *errx.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Status
}

// suspend submits a query whose first evaluation scores below the threshold.
func suspend(t *testing.T, fake *oracletest.Fake, query string) *workflow.Orchestrator {
	t.Helper()
	o := newOrchestrator(t, fake, nil)
	require.NoError(t, o.Submit(context.Background(), query))
	require.Equal(t, model.PhaseAwaitingHumanInput, o.Phase())
	return o
}

func TestSubmit_HighConfidenceCompletes(t *testing.T) {
	fake := oracletest.New()
	fake.Refined = []string{"refined question"}
	o := newOrchestrator(t, fake, nil)

	require.NoError(t, o.Submit(context.Background(), "  question  "))

	state := o.State()
	assert.Equal(t, model.PhaseCompleted, state.Phase)
	assert.Nil(t, state.Pending)
	require.Len(t, state.History, 2)
	assert.Equal(t, model.RoleUser, state.History[0].Role)
	assert.Equal(t, "question", state.History[0].Text)
	assert.Equal(t, model.RoleModel, state.History[1].Role)
	assert.Equal(t, "Answer to: refined question", state.History[1].Text)

	for _, id := range []model.StageID{
		model.StageQueryRefinement, model.StageContextualPreAnalysis, model.StageDynamicRetrieval,
		model.StageResponseGeneration, model.StageSufficiencyEvaluation, model.StageFinalOutput,
	} {
		assert.Equal(t, model.StatusCompleted, stage(o, id).Status, id)
	}
	assert.Equal(t, model.StatusIdle, stage(o, model.StageDocumentProcessing).Status)
	assert.Equal(t, "Refined Query: refined question", output(stage(o, model.StageQueryRefinement)))
	assert.Equal(t, "Confidence: 90%. Justification: Complete answer.", output(stage(o, model.StageSufficiencyEvaluation)))

	logs := logText(o)
	assert.Contains(t, logs, "Workflow started for query: \"question\"")
	assert.Contains(t, logs, "Confidence is high. Proceeding to final output.")
	assert.Contains(t, logs, "Workflow finished successfully.")
}

func TestSubmit_ThresholdBoundary(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{{ConfidenceScore: 75, Justification: "ok"}}
	o := newOrchestrator(t, fake, nil)

	require.NoError(t, o.Submit(context.Background(), "q"))
	assert.Equal(t, model.PhaseCompleted, o.Phase())
}

func TestSubmit_LowConfidenceSuspends(t *testing.T) {
	fake := oracletest.New()
	fake.Refined = []string{"refined q"}
	fake.Evaluations = []model.Evaluation{lowScore}
	o := suspend(t, fake, "q")

	state := o.State()
	require.NotNil(t, state.Pending)
	p := state.Pending
	assert.Equal(t, 60, p.Confidence)
	assert.Equal(t, "Missing details.", p.Justification)
	assert.Equal(t, "q", p.OriginalQuery)
	assert.Equal(t, "refined q", p.RefinedQuery)
	assert.Equal(t, "Answer to: refined q", p.CurrentResponse)
	assert.Equal(t, model.AllActions, p.AvailableActions)
	assert.Equal(t, state.History, p.ChatHistory)

	require.Len(t, state.History, 1, "no model turn while suspended")
	assert.Equal(t, model.StatusIdle, stage(o, model.StageFinalOutput).Status)
	assert.Contains(t, logText(o), "Confidence below 75%. Initiating human-in-the-loop process...")
}

func TestSubmit_Rejections(t *testing.T) {
	fake := oracletest.New()
	o := newOrchestrator(t, fake, nil)

	err := o.Submit(context.Background(), "   ")
	require.ErrorIs(t, err, workflow.ErrEmptyQuery)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, o.State().History)
	assert.Empty(t, o.State().Logs)

	fake.Evaluations = []model.Evaluation{lowScore}
	require.NoError(t, o.Submit(context.Background(), "q"))
	err = o.Submit(context.Background(), "another")
	require.ErrorIs(t, err, workflow.ErrAwaitingDecision)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.Len(t, o.State().History, 1)
}

func TestSubmit_WebSearchOnlyWithoutInternalChunks(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		fake := oracletest.New()
		o := newOrchestrator(t, fake, nil)
		require.NoError(t, o.Submit(context.Background(), "q"))

		calls := fake.GenerateCalls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].UseWebSearch)
		assert.Empty(t, calls[0].InternalContext)
		assert.Zero(t, fake.Calls(oracle.OpRankRelevantChunks))
		assert.Contains(t, output(stage(o, model.StageDynamicRetrieval)), "External web search initiated.")
	})

	t.Run("relevant chunks", func(t *testing.T) {
		fake := oracletest.New()
		o := newOrchestrator(t, fake, nil)
		require.NoError(t, o.Ingest(context.Background(), []ingest.File{textFile("a.txt", "alpha beta")}))
		require.NoError(t, o.Submit(context.Background(), "alpha"))

		calls := fake.GenerateCalls()
		require.Len(t, calls, 1)
		assert.False(t, calls[0].UseWebSearch)
		assert.Equal(t, "Source File: a.txt\nContent: alpha beta", calls[0].InternalContext)
		assert.Equal(t, "Retrieved 1 internal chunk(s). Skipping external web search.", output(stage(o, model.StageDynamicRetrieval)))

		last := o.State().History[1]
		require.Len(t, last.RetrievedChunks, 1)
		assert.Equal(t, "a.txt-0", last.RetrievedChunks[0].ID)
	})

	t.Run("nothing relevant", func(t *testing.T) {
		fake := oracletest.New()
		fake.Rank = func(string, []model.Chunk) []model.Chunk { return nil }
		o := newOrchestrator(t, fake, nil)
		require.NoError(t, o.Ingest(context.Background(), []ingest.File{textFile("a.txt", "alpha")}))
		require.NoError(t, o.Submit(context.Background(), "unrelated"))

		calls := fake.GenerateCalls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].UseWebSearch)
		assert.Contains(t, logText(o), "No relevant information found in your documents for this query.")
	})
}

func TestSubmit_RankingFailureFallsBackToKeywords(t *testing.T) {
	fake := oracletest.New()
	fake.Errors = map[string]error{oracle.OpRankRelevantChunks: errors.New("rank down")}
	o := newOrchestrator(t, fake, nil)
	require.NoError(t, o.Ingest(context.Background(), []ingest.File{
		textFile("pets.txt", "Cats sleep a lot."),
		textFile("cars.txt", "Engines need oil."),
	}))

	require.NoError(t, o.Submit(context.Background(), "why do cats sleep"))

	assert.Equal(t, model.PhaseCompleted, o.Phase())
	calls := fake.GenerateCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].InternalContext, "pets.txt")
	assert.NotContains(t, calls[0].InternalContext, "cars.txt")
}

func TestSubmit_EvaluationFailureSuspends(t *testing.T) {
	fake := oracletest.New()
	fake.Errors = map[string]error{oracle.OpEvaluateSufficiency: errors.New("bad json")}
	o := suspend(t, fake, "q")

	p := o.Pending()
	assert.Equal(t, 30, p.Confidence)
	assert.Equal(t, "evaluation failed", p.Justification)
}

func TestSubmit_GenerationFailureFailsPass(t *testing.T) {
	fake := oracletest.New()
	fake.Errors = map[string]error{
		oracle.OpGenerateAnswer: errx.WrapOracle(oracle.MsgGenerateFailed, errors.New("unreachable")),
	}
	o := newOrchestrator(t, fake, nil)

	require.NoError(t, o.Submit(context.Background(), "q"))

	state := o.State()
	assert.Equal(t, model.PhaseFailed, state.Phase)
	require.Len(t, state.History, 2)
	assert.Equal(t, model.RoleModel, state.History[1].Role)
	assert.Equal(t, "Sorry, an error occurred: Failed to generate response.", state.History[1].Text)

	for _, id := range []model.StageID{model.StageDynamicRetrieval, model.StageResponseGeneration} {
		rec := stage(o, id)
		assert.Equal(t, model.StatusFailed, rec.Status, id)
		assert.Equal(t, "Failed to generate response.", output(rec))
	}
	assert.Equal(t, model.StatusIdle, stage(o, model.StageSufficiencyEvaluation).Status)
	assert.Zero(t, fake.Calls(oracle.OpEvaluateSufficiency))
	assert.Contains(t, logText(o), "Workflow failed: Failed to generate response.")

	// A failed session accepts the next query.
	fake.Errors = nil
	require.NoError(t, o.Submit(context.Background(), "again"))
	assert.Equal(t, model.PhaseCompleted, o.Phase())
}

func TestSubmit_RefineFailure(t *testing.T) {
	fake := oracletest.New()
	fake.Errors = map[string]error{
		oracle.OpRefineQuery: errx.WrapOracle(oracle.MsgRefineFailed, errors.New("timeout")),
	}
	o := newOrchestrator(t, fake, nil)

	require.NoError(t, o.Submit(context.Background(), "q"))

	assert.Equal(t, model.PhaseFailed, o.Phase())
	rec := stage(o, model.StageQueryRefinement)
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Equal(t, "Failed to refine query.", output(rec))
	assert.Zero(t, fake.Calls(oracle.OpGenerateAnswer))
}

func TestResume_AcceptSkipsEvaluation(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore}
	o := suspend(t, fake, "q")
	pending := o.Pending()

	require.NoError(t, o.Resume(context.Background(), model.ActionAcceptResponse, ""))

	state := o.State()
	assert.Equal(t, model.PhaseCompleted, state.Phase)
	assert.Nil(t, state.Pending)
	assert.Equal(t, 1, fake.Calls(oracle.OpEvaluateSufficiency))
	require.Len(t, state.History, 2)
	assert.Equal(t, pending.CurrentResponse, state.History[1].Text)
	assert.Equal(t, "Enhanced response delivered.", output(stage(o, model.StageFinalOutput)))

	logs := logText(o)
	assert.Contains(t, logs, "Human action: accept_response")
	assert.Contains(t, logs, "Skipping re-evaluation as user accepted the current response.")
	assert.Contains(t, logs, "Human-in-the-loop workflow completed successfully.")
}

func TestResume_RefineWithFeedback(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore, {ConfidenceScore: 85, Justification: "Better."}}
	o := suspend(t, fake, "q")
	pending := o.Pending()

	require.NoError(t, o.Resume(context.Background(), model.ActionRefineQuery, " more detail "))

	feedback := fake.FeedbackCalls()
	require.Len(t, feedback, 1)
	assert.Equal(t, oracletest.FeedbackCall{OriginalQuery: "q", Feedback: "more detail", Justification: "Missing details."}, feedback[0])

	calls := fake.GenerateCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "q (more detail)", calls[1].Query)
	assert.Equal(t, pending.ChatHistory, calls[1].History)

	state := o.State()
	assert.Equal(t, model.PhaseCompleted, state.Phase)
	require.Len(t, state.History, 2, "a remedial pass adds no user turn")
	assert.Equal(t, "Answer to: q (more detail)", state.History[1].Text)
	assert.Equal(t, "Refined Query: q (more detail)", output(stage(o, model.StageQueryRefinement)))
	assert.Contains(t, logText(o), "Re-evaluation confidence is now acceptable (85% >= 75%). Proceeding to final output.")
}

func TestResume_RefineRequiresFeedback(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore}
	o := suspend(t, fake, "q")

	err := o.Resume(context.Background(), model.ActionRefineQuery, "  ")
	require.ErrorIs(t, err, workflow.ErrEmptyFeedback)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Equal(t, model.PhaseAwaitingHumanInput, o.Phase())
	assert.NotNil(t, o.Pending())
}

func TestResume_SearchWebReSuspends(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore, {ConfidenceScore: 50, Justification: "Still thin."}}
	o := suspend(t, fake, "q")

	require.NoError(t, o.Resume(context.Background(), model.ActionSearchWeb, ""))

	enhance := fake.EnhanceCalls()
	require.Len(t, enhance, 1)
	assert.Equal(t, "Answer to: q", enhance[0].PriorText)

	assert.Equal(t, model.PhaseAwaitingHumanInput, o.Phase())
	p := o.Pending()
	require.NotNil(t, p)
	assert.Equal(t, 50, p.Confidence)
	assert.Equal(t, "Answer to: q (enhanced)", p.CurrentResponse)
	assert.Len(t, o.State().History, 1)
	assert.Contains(t, logText(o), "Re-evaluation confidence still below 75%. Offering another round of human intervention...")

	// Another round is offered.
	require.NoError(t, o.Resume(context.Background(), model.ActionAcceptResponse, ""))
	state := o.State()
	assert.Equal(t, model.PhaseCompleted, state.Phase)
	assert.Equal(t, "Answer to: q (enhanced)", state.History[1].Text)
}

func TestResume_PlaceholderActionsOnlyReevaluate(t *testing.T) {
	for action, line := range map[model.Action]string{
		model.ActionAddContext:        "Context addition feature would be implemented here.",
		model.ActionManualImprovement: "Manual improvement feature would be implemented here.",
	} {
		t.Run(string(action), func(t *testing.T) {
			fake := oracletest.New()
			fake.Evaluations = []model.Evaluation{lowScore, {ConfidenceScore: 80, Justification: "Fine."}}
			o := suspend(t, fake, "q")

			require.NoError(t, o.Resume(context.Background(), action, ""))

			assert.Equal(t, 1, fake.Calls(oracle.OpGenerateAnswer))
			assert.Equal(t, 2, fake.Calls(oracle.OpEvaluateSufficiency))
			assert.Zero(t, fake.Calls(oracle.OpEnhanceWithWebSearch))
			assert.Equal(t, model.PhaseCompleted, o.Phase())
			assert.Equal(t, "Answer to: q", o.State().History[1].Text)
			assert.Contains(t, logText(o), line)
		})
	}
}

func TestResume_FailureDiscardsDecision(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore}
	fake.Errors = map[string]error{
		oracle.OpEnhanceWithWebSearch: errx.WrapOracle(oracle.MsgEnhanceFailed, errors.New("quota")),
	}
	o := suspend(t, fake, "q")

	require.NoError(t, o.Resume(context.Background(), model.ActionSearchWeb, ""))

	assert.Equal(t, model.PhaseFailed, o.Phase())
	assert.Nil(t, o.Pending())
	assert.Equal(t, model.StatusFailed, stage(o, model.StageResponseGeneration).Status)
	assert.Contains(t, logText(o), "Human-in-the-loop action failed: Failed to enhance response with web search.")
}

func TestResume_WithoutPendingDecision(t *testing.T) {
	o := newOrchestrator(t, oracletest.New(), nil)

	err := o.Resume(context.Background(), model.ActionAcceptResponse, "")
	require.ErrorIs(t, err, workflow.ErrNoPendingDecision)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestDismiss(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore, {ConfidenceScore: 90, Justification: "ok"}}
	o := suspend(t, fake, "q")

	require.NoError(t, o.Dismiss(context.Background()))
	assert.Equal(t, model.PhaseIdle, o.Phase())
	assert.Nil(t, o.Pending())

	require.ErrorIs(t, o.Dismiss(context.Background()), workflow.ErrNoPendingDecision)
	require.NoError(t, o.Submit(context.Background(), "next"))
	assert.Equal(t, model.PhaseCompleted, o.Phase())
}

func TestOrchestrator_RejectsWorkWhileRunning(t *testing.T) {
	fake := oracletest.New()
	var o *workflow.Orchestrator
	var submitErr, ingestErr, resetErr error
	fake.BeforeCall = func(op string) {
		if op != oracle.OpGenerateAnswer {
			return
		}
		submitErr = o.Submit(context.Background(), "second")
		ingestErr = o.Ingest(context.Background(), []ingest.File{textFile("a.txt", "x")})
		resetErr = o.NewSession(context.Background())
	}
	o = newOrchestrator(t, fake, nil)

	require.NoError(t, o.Submit(context.Background(), "first"))

	require.ErrorIs(t, submitErr, workflow.ErrBusy)
	require.ErrorIs(t, ingestErr, workflow.ErrBusy)
	require.ErrorIs(t, resetErr, workflow.ErrBusy)
	assert.Equal(t, 1, fake.Calls(oracle.OpRefineQuery))
	assert.Len(t, o.State().History, 2)
}

func TestIngest(t *testing.T) {
	o := newOrchestrator(t, oracletest.New(), nil)

	require.NoError(t, o.Ingest(context.Background(), []ingest.File{textFile("a.txt", strings.Repeat("x", 1500))}))
	rec := stage(o, model.StageDocumentProcessing)
	assert.Equal(t, model.StatusCompleted, rec.Status)
	assert.Equal(t, "Successfully processed 1 file(s) into 2 chunks.", output(rec))
	assert.Len(t, o.State().Chunks, 2)

	// Document processing survives the reset for a new query.
	require.NoError(t, o.Submit(context.Background(), "x"))
	assert.Equal(t, model.StatusCompleted, stage(o, model.StageDocumentProcessing).Status)

	err := o.Ingest(context.Background(), []ingest.File{
		textFile("b.txt", "fine"),
		{Name: "bad.pdf", ContentType: "application/pdf", Data: []byte("garbage")},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	rec = stage(o, model.StageDocumentProcessing)
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Equal(t, "failed to process file bad.pdf", output(rec))
	assert.Empty(t, o.State().Chunks)
	assert.Contains(t, logText(o), "Agent 0 [Document Processing] failed: failed to process file bad.pdf")

	require.ErrorIs(t, o.Ingest(context.Background(), nil), workflow.ErrNoFiles)
}

func TestNewSession(t *testing.T) {
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore}
	o := newOrchestrator(t, fake, nil)
	require.NoError(t, o.Ingest(context.Background(), []ingest.File{textFile("a.txt", "alpha")}))
	require.NoError(t, o.Submit(context.Background(), "alpha"))

	require.NoError(t, o.NewSession(context.Background()))

	state := o.State()
	assert.Equal(t, model.PhaseIdle, state.Phase)
	assert.Nil(t, state.Pending)
	assert.Empty(t, state.History)
	assert.Empty(t, state.Logs)
	assert.Empty(t, state.Chunks)
	for _, rec := range state.Agents {
		assert.Equal(t, model.StatusIdle, rec.Status, rec.ID)
		assert.Nil(t, rec.Output, rec.ID)
	}
}

func TestRestore_ResumesSuspendedWorkflow(t *testing.T) {
	store := repo.NewMemorySessionStore(time.Minute, time.Minute)
	fake := oracletest.New()
	fake.Evaluations = []model.Evaluation{lowScore}

	first := newOrchestrator(t, fake, store)
	require.NoError(t, first.Ingest(context.Background(), []ingest.File{textFile("a.txt", "alpha")}))
	require.NoError(t, first.Submit(context.Background(), "alpha"))
	require.Equal(t, model.PhaseAwaitingHumanInput, first.Phase())

	saved, err := store.Load(context.Background(), "test-session")
	require.NoError(t, err)

	second := newOrchestrator(t, fake, store)
	require.NoError(t, second.Restore(saved))
	assert.Equal(t, first.State().Pending, second.State().Pending)
	assert.Equal(t, first.State().History, second.State().History)
	assert.Equal(t, first.State().Chunks, second.State().Chunks)

	require.NoError(t, second.Resume(context.Background(), model.ActionAcceptResponse, ""))
	state := second.State()
	assert.Equal(t, model.PhaseCompleted, state.Phase)
	require.Len(t, state.History, 2)
	require.Len(t, state.History[1].RetrievedChunks, 1)
	assert.Equal(t, "a.txt-0", state.History[1].RetrievedChunks[0].ID)
}

func TestRestore_InterruptedPassBecomesFailed(t *testing.T) {
	o := newOrchestrator(t, oracletest.New(), nil)
	state := o.State()
	state.Phase = model.PhaseRunning

	require.NoError(t, o.Restore(state))
	assert.Equal(t, model.PhaseFailed, o.Phase())
	require.NoError(t, o.Submit(context.Background(), "q"))
}
