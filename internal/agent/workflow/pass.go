package workflow

import (
	"context"
	"strings"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/session"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
)

// Submit runs a fresh pass for query. Rejections (empty query, busy session,
// pending decision) return an AppError before any state changes. A failing
// pass is not an error for the caller: the session ends Failed with an error
// turn in the ledger.
func (o *Orchestrator) Submit(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return errx.Validation(ErrEmptyQuery)
	}

	o.mu.Lock()
	if o.running || o.indexing {
		o.mu.Unlock()
		return errx.Conflict(ErrBusy)
	}
	if !o.phase.AcceptsQueries() {
		o.mu.Unlock()
		return errx.Conflict(ErrAwaitingDecision)
	}
	o.running = true
	o.setPhaseLocked(model.PhaseRunning)
	o.mu.Unlock()
	defer o.finishRun(ctx)

	o.registry.ResetForNewQuery()
	o.ledger.Append(model.NewUserTurn(q))
	o.log.Appendf("Workflow started for query: \"%s\"", q)

	out, err := o.runner.Run(ctx, model.RouteQuery, &model.Pass{
		OriginalQuery: q,
		History:       o.ledger.Snapshot(),
	})
	if err != nil {
		o.failPass(err)
		return nil
	}
	o.settle(out, false)
	return nil
}

// Resume applies a human decision to the suspended workflow. The outcome is
// either a completed answer, a new suspension or a failed session.
func (o *Orchestrator) Resume(ctx context.Context, action model.Action, feedback string) error {
	feedback = strings.TrimSpace(feedback)

	o.mu.Lock()
	if o.running || o.indexing {
		o.mu.Unlock()
		return errx.Conflict(ErrBusy)
	}
	if o.phase != model.PhaseAwaitingHumanInput || o.pending == nil {
		o.mu.Unlock()
		return errx.Conflict(ErrNoPendingDecision)
	}
	if !o.pending.Allows(action) {
		o.mu.Unlock()
		return errx.Validation(ErrActionUnavailable)
	}
	if action == model.ActionRefineQuery && feedback == "" {
		o.mu.Unlock()
		return errx.Validation(ErrEmptyFeedback)
	}
	decision := clonePending(o.pending)
	o.running = true
	o.setPhaseLocked(model.PhaseRunning)
	o.mu.Unlock()
	defer o.finishRun(ctx)

	o.log.Appendf("Human action: %s", action)

	chunks := decision.RetrievedChunks
	if len(chunks) == 0 {
		chunks = o.chunks.MatchContext(decision.InternalContext)
	}
	pass := &model.Pass{
		Remedial:        true,
		OriginalQuery:   decision.OriginalQuery,
		RefinedQuery:    decision.RefinedQuery,
		History:         session.CloneTurns(decision.ChatHistory),
		Justification:   decision.Justification,
		Chunks:          chunks,
		InternalContext: decision.InternalContext,
		Response:        decision.CurrentResponse,
		Sources:         decision.Sources,
	}

	var route model.Route
	switch action {
	case model.ActionRefineQuery:
		pass.Feedback = feedback
		route = model.RouteFeedback
	case model.ActionSearchWeb:
		route = model.RouteWebEnhance
	case model.ActionAddContext:
		o.log.Append("Context addition feature would be implemented here.")
		route = model.RouteReevaluate
	case model.ActionManualImprovement:
		o.log.Append("Manual improvement feature would be implemented here.")
		route = model.RouteReevaluate
	case model.ActionAcceptResponse:
		o.log.Append("Accepting current response as requested by user.")
		o.log.Append("Skipping re-evaluation as user accepted the current response.")
		route = model.RouteAccept
	}

	out, err := o.runner.Run(ctx, route, pass)
	if err != nil {
		msg := errx.SafeMessage(err)
		o.log.Appendf("Human-in-the-loop action failed: %s", msg)
		o.registry.FailRunning(msg)
		o.mu.Lock()
		o.pending = nil
		o.setPhaseLocked(model.PhaseFailed)
		o.mu.Unlock()
		return nil
	}
	o.settle(out, true)
	return nil
}

// Dismiss discards the pending decision without acting on it.
func (o *Orchestrator) Dismiss(ctx context.Context) error {
	o.mu.Lock()
	if o.running || o.indexing {
		o.mu.Unlock()
		return errx.Conflict(ErrBusy)
	}
	if o.phase != model.PhaseAwaitingHumanInput {
		o.mu.Unlock()
		return errx.Conflict(ErrNoPendingDecision)
	}
	o.pending = nil
	o.setPhaseLocked(model.PhaseIdle)
	o.mu.Unlock()

	o.log.Append("Human decision dismissed.")
	o.persist(ctx)
	return nil
}

// settle applies the outcome of a pass that ran without error.
func (o *Orchestrator) settle(out *model.Pass, remedial bool) {
	switch {
	case out.Suspended():
		o.mu.Lock()
		o.pending = clonePending(out.Decision)
		o.setPhaseLocked(model.PhaseAwaitingHumanInput)
		o.mu.Unlock()
	case out.Turn != nil:
		o.ledger.Append(*out.Turn)
		if remedial {
			o.log.Append("Human-in-the-loop workflow completed successfully.")
		} else {
			o.log.Append("Workflow finished successfully.")
		}
		o.mu.Lock()
		o.pending = nil
		o.setPhaseLocked(model.PhaseCompleted)
		o.mu.Unlock()
	default:
		if remedial {
			o.log.Appendf("Human-in-the-loop action failed: %s", errNoOutcome)
			o.registry.FailRunning(errNoOutcome.Error())
			o.mu.Lock()
			o.pending = nil
			o.setPhaseLocked(model.PhaseFailed)
			o.mu.Unlock()
			return
		}
		o.failPass(errNoOutcome)
	}
}

// failPass ends a fresh pass: running stages fail with the message and the
// ledger gets an error turn.
func (o *Orchestrator) failPass(err error) {
	msg := errx.SafeMessage(err)
	o.log.Appendf("Workflow failed: %s", msg)
	o.registry.FailRunning(msg)
	o.ledger.Append(model.NewErrorTurn(msg))
	o.setPhase(model.PhaseFailed)
}

func (o *Orchestrator) finishRun(ctx context.Context) {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
	o.persist(ctx)
}
