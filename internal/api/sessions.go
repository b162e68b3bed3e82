package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/workflow"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
	"github.com/Chative-core-poc-v1/agentic-rag/pkg/metrics"
)

const sessionNotFoundMessage = "session not found"

// Sessions keeps live orchestrators in memory for the session TTL. A session
// that fell out of memory is rebuilt from its stored snapshot.
type Sessions struct {
	oracle   oracle.Oracle
	workflow model.WorkflowConfig
	store    model.SessionStore

	mu   sync.Mutex
	live *cache.Cache
}

func NewSessions(o oracle.Oracle, wc model.WorkflowConfig, sc model.SessionConfig, store model.SessionStore) *Sessions {
	live := cache.New(sc.TTL, sc.CleanupInterval)
	live.OnEvicted(func(string, any) { metrics.LiveSessions.Dec() })
	return &Sessions{oracle: o, workflow: wc, store: store, live: live}
}

// Create starts an idle session with a fresh id.
func (s *Sessions) Create(ctx context.Context) (*workflow.Orchestrator, error) {
	orch, err := s.build(ctx, uuid.NewString())
	if err != nil {
		return nil, err
	}
	if err := orch.NewSession(ctx); err != nil {
		return nil, err
	}
	s.keep(orch)
	logx.Info().Str("session_id", orch.ID()).Msg("Session created")
	return orch, nil
}

// Get returns the live session or restores it from the store.
func (s *Sessions) Get(ctx context.Context, id string) (*workflow.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.live.Get(id); ok {
		orch := v.(*workflow.Orchestrator)
		s.live.SetDefault(id, orch)
		return orch, nil
	}
	if s.store == nil {
		return nil, errx.New(model.ErrSessionNotFound, http.StatusNotFound, sessionNotFoundMessage)
	}

	state, err := s.store.Load(ctx, id)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, errx.New(err, http.StatusNotFound, sessionNotFoundMessage)
	}
	if err != nil {
		return nil, err
	}
	orch, err := s.build(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := orch.Restore(state); err != nil {
		return nil, err
	}
	s.live.SetDefault(id, orch)
	metrics.LiveSessions.Inc()
	logx.Info().Str("session_id", id).Str("phase", string(orch.Phase())).Msg("Session restored from store")
	return orch, nil
}

// Delete drops a session from memory and from the store.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	s.live.Delete(id)
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, id)
}

func (s *Sessions) build(ctx context.Context, id string) (*workflow.Orchestrator, error) {
	return workflow.New(ctx, id, s.oracle, workflow.Config{Workflow: s.workflow, Store: s.store})
}

func (s *Sessions) keep(orch *workflow.Orchestrator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live.SetDefault(orch.ID(), orch)
	metrics.LiveSessions.Inc()
}
