package workflow

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/session"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
	"github.com/Chative-core-poc-v1/agentic-rag/pkg/metrics"
)

// Config configures one orchestrator.
type Config struct {
	Workflow model.WorkflowConfig
	// Store receives a snapshot after every settled transition. Optional.
	Store model.SessionStore
}

// Orchestrator owns one session: the stage registry, the session log, the
// conversation ledger, the chunk store, the phase and the pending decision.
type Orchestrator struct {
	id     string
	cfg    model.WorkflowConfig
	store  model.SessionStore
	logger zerolog.Logger

	registry *session.Registry
	log      *session.Log
	ledger   *session.Ledger
	chunks   *session.ChunkStore
	runner   graph.Runner

	// mu guards the fields below. It is never held while the graph runs.
	mu       sync.Mutex
	phase    model.Phase
	pending  *model.PendingDecision
	running  bool
	indexing bool
}

// New builds an idle session. Ranking and evaluation failures of o degrade
// to their fallbacks; every other oracle failure fails the pass.
func New(ctx context.Context, id string, o oracle.Oracle, cfg Config) (*Orchestrator, error) {
	wc := cfg.Workflow.Normalize()
	logger := logx.Session(id)

	orch := &Orchestrator{
		id:       id,
		cfg:      wc,
		store:    cfg.Store,
		logger:   logger,
		registry: session.NewRegistry(),
		log:      session.NewLog(logger),
		ledger:   session.NewLedger(),
		chunks:   session.NewChunkStore(),
		phase:    model.PhaseIdle,
	}

	runner, err := graph.BuildRunner(ctx, &nodes.Deps{
		Oracle:           oracle.WithFallbacks(o),
		Registry:         orch.registry,
		Log:              orch.log,
		Chunks:           orch.chunks,
		Threshold:        wc.ConfidenceThreshold,
		PreAnalysisDelay: wc.PreAnalysisDelay,
	})
	if err != nil {
		return nil, err
	}
	orch.runner = runner
	return orch, nil
}

func (o *Orchestrator) ID() string { return o.id }

func (o *Orchestrator) Phase() model.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Pending returns a copy of the pending decision, nil when not suspended.
func (o *Orchestrator) Pending() *model.PendingDecision {
	o.mu.Lock()
	defer o.mu.Unlock()
	return clonePending(o.pending)
}

// State snapshots the six persisted parts of the session.
func (o *Orchestrator) State() *model.SessionState {
	o.mu.Lock()
	phase, pending := o.phase, clonePending(o.pending)
	o.mu.Unlock()

	return &model.SessionState{
		Agents:  o.registry.List(),
		Logs:    o.log.Entries(),
		History: o.ledger.Snapshot(),
		Chunks:  o.chunks.All(),
		Phase:   phase,
		Pending: pending,
	}
}

// Restore replaces the session with a snapshot. A snapshot taken mid-pass
// cannot be resumed and is restored as failed.
func (o *Orchestrator) Restore(state *model.SessionState) error {
	if state == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running || o.indexing {
		return errx.Conflict(ErrBusy)
	}

	o.registry.Restore(state.Agents)
	o.log.Restore(state.Logs)
	o.ledger.Restore(state.History)
	o.chunks.Replace(state.Chunks)

	phase := state.Phase
	switch {
	case phase == "":
		phase = model.PhaseIdle
	case phase == model.PhaseRunning:
		o.registry.FailRunning("interrupted")
		phase = model.PhaseFailed
	case phase == model.PhaseAwaitingHumanInput && state.Pending == nil:
		phase = model.PhaseIdle
	}
	o.phase = phase
	o.pending = nil
	if phase == model.PhaseAwaitingHumanInput {
		o.pending = clonePending(state.Pending)
	}
	return nil
}

// setPhaseLocked must be called with mu held.
func (o *Orchestrator) setPhaseLocked(p model.Phase) {
	if o.phase != p {
		metrics.WorkflowTransitions.WithLabelValues(string(p)).Inc()
		o.logger.Debug().Str("from", string(o.phase)).Str("to", string(p)).Msg("Workflow phase changed")
	}
	o.phase = p
}

func (o *Orchestrator) setPhase(p model.Phase) {
	o.mu.Lock()
	o.setPhaseLocked(p)
	o.mu.Unlock()
}

// persist saves a snapshot; failures are logged and never fail the caller.
func (o *Orchestrator) persist(ctx context.Context) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(context.WithoutCancel(ctx), o.id, o.State()); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to persist session snapshot")
	}
}

func clonePending(d *model.PendingDecision) *model.PendingDecision {
	if d == nil {
		return nil
	}
	c := *d
	c.AvailableActions = slices.Clone(d.AvailableActions)
	c.ChatHistory = session.CloneTurns(d.ChatHistory)
	c.Sources = slices.Clone(d.Sources)
	c.RetrievedChunks = slices.Clone(d.RetrievedChunks)
	return &c
}
