// Package oracletest provides a deterministic in-memory oracle.Oracle.
package oracletest

import (
	"context"
	"sync"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle"
)

// GenerateCall records the arguments of one GenerateAnswer call.
type GenerateCall struct {
	Query           string
	History         []model.Turn
	InternalContext string
	UseWebSearch    bool
}

// EnhanceCall records the arguments of one EnhanceWithWebSearch call.
type EnhanceCall struct {
	PriorText       string
	Query           string
	InternalContext string
}

// FeedbackCall records the arguments of one RefineQueryWithFeedback call.
type FeedbackCall struct {
	OriginalQuery string
	Feedback      string
	Justification string
}

// Fake answers from scripts. For every scripted list, call n gets element n
// and the last element repeats once the list is exhausted. Unscripted calls
// get simple derived answers.
type Fake struct {
	mu sync.Mutex

	Refined     []string
	Answers     []model.Generation
	Enhanced    []model.Generation
	Evaluations []model.Evaluation
	// Rank selects relevant chunks; nil keeps every chunk.
	Rank func(query string, chunks []model.Chunk) []model.Chunk

	// Errors fails the named operation (see the oracle.Op* constants).
	Errors map[string]error
	// BeforeCall runs outside the lock at the start of every call.
	BeforeCall func(op string)

	calls         map[string]int
	generateCalls []GenerateCall
	enhanceCalls  []EnhanceCall
	feedbackCalls []FeedbackCall
	evalHistories [][]model.Turn
}

func New() *Fake {
	return &Fake{}
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) GenerateCalls() []GenerateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GenerateCall(nil), f.generateCalls...)
}

func (f *Fake) EnhanceCalls() []EnhanceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EnhanceCall(nil), f.enhanceCalls...)
}

func (f *Fake) FeedbackCalls() []FeedbackCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FeedbackCall(nil), f.feedbackCalls...)
}

// EvaluationHistories returns the history passed to each evaluation.
func (f *Fake) EvaluationHistories() [][]model.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]model.Turn(nil), f.evalHistories...)
}

// begin counts the call and returns its zero-based index and scripted error.
func (f *Fake) begin(op string) (int, error) {
	if f.BeforeCall != nil {
		f.BeforeCall(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	n := f.calls[op]
	f.calls[op] = n + 1
	return n, f.Errors[op]
}

func pick[T any](list []T, n int) (T, bool) {
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	return list[min(n, len(list)-1)], true
}

func (f *Fake) RefineQuery(_ context.Context, originalQuery string, _ []model.Turn) (string, error) {
	n, err := f.begin(oracle.OpRefineQuery)
	if err != nil {
		return "", err
	}
	if q, ok := pick(f.Refined, n); ok {
		return q, nil
	}
	return originalQuery, nil
}

func (f *Fake) RefineQueryWithFeedback(_ context.Context, originalQuery string, _ []model.Turn, feedback, justification string) (string, error) {
	_, err := f.begin(oracle.OpRefineQueryWithFeedback)
	f.mu.Lock()
	f.feedbackCalls = append(f.feedbackCalls, FeedbackCall{OriginalQuery: originalQuery, Feedback: feedback, Justification: justification})
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return originalQuery + " (" + feedback + ")", nil
}

func (f *Fake) RankRelevantChunks(_ context.Context, query string, chunks []model.Chunk) ([]model.Chunk, error) {
	if _, err := f.begin(oracle.OpRankRelevantChunks); err != nil {
		return nil, err
	}
	if f.Rank != nil {
		return f.Rank(query, chunks), nil
	}
	return append([]model.Chunk(nil), chunks...), nil
}

func (f *Fake) GenerateAnswer(_ context.Context, query string, history []model.Turn, internalContext string, useWebSearch bool) (model.Generation, error) {
	n, err := f.begin(oracle.OpGenerateAnswer)
	f.mu.Lock()
	f.generateCalls = append(f.generateCalls, GenerateCall{
		Query:           query,
		History:         append([]model.Turn(nil), history...),
		InternalContext: internalContext,
		UseWebSearch:    useWebSearch,
	})
	f.mu.Unlock()
	if err != nil {
		return model.Generation{}, err
	}
	if g, ok := pick(f.Answers, n); ok {
		return g, nil
	}
	return model.Generation{Text: "Answer to: " + query}, nil
}

func (f *Fake) EnhanceWithWebSearch(_ context.Context, priorText, query string, _ []model.Turn, internalContext string) (model.Generation, error) {
	n, err := f.begin(oracle.OpEnhanceWithWebSearch)
	f.mu.Lock()
	f.enhanceCalls = append(f.enhanceCalls, EnhanceCall{PriorText: priorText, Query: query, InternalContext: internalContext})
	f.mu.Unlock()
	if err != nil {
		return model.Generation{}, err
	}
	if g, ok := pick(f.Enhanced, n); ok {
		return g, nil
	}
	return model.Generation{Text: priorText + " (enhanced)"}, nil
}

func (f *Fake) EvaluateSufficiency(_ context.Context, _ string, _ string, history []model.Turn) (model.Evaluation, error) {
	n, err := f.begin(oracle.OpEvaluateSufficiency)
	f.mu.Lock()
	f.evalHistories = append(f.evalHistories, append([]model.Turn(nil), history...))
	f.mu.Unlock()
	if err != nil {
		return model.Evaluation{}, err
	}
	if e, ok := pick(f.Evaluations, n); ok {
		return e, nil
	}
	return model.Evaluation{ConfidenceScore: 90, Justification: "Complete answer."}, nil
}

var _ oracle.Oracle = (*Fake)(nil)
