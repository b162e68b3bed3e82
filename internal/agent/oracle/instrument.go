package oracle

import (
	"context"
	"time"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/pkg/metrics"
)

type instrumentedOracle struct {
	next Oracle
}

// Instrument records call counts and latencies of o in Prometheus.
func Instrument(o Oracle) Oracle {
	return &instrumentedOracle{next: o}
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OracleCalls.WithLabelValues(op, status).Inc()
	metrics.OracleCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *instrumentedOracle) RefineQuery(ctx context.Context, originalQuery string, history []model.Turn) (out string, err error) {
	defer func(start time.Time) { observe(OpRefineQuery, start, err) }(time.Now())
	return i.next.RefineQuery(ctx, originalQuery, history)
}

func (i *instrumentedOracle) RefineQueryWithFeedback(ctx context.Context, originalQuery string, history []model.Turn, feedback, justification string) (out string, err error) {
	defer func(start time.Time) { observe(OpRefineQueryWithFeedback, start, err) }(time.Now())
	return i.next.RefineQueryWithFeedback(ctx, originalQuery, history, feedback, justification)
}

func (i *instrumentedOracle) RankRelevantChunks(ctx context.Context, query string, chunks []model.Chunk) (out []model.Chunk, err error) {
	defer func(start time.Time) { observe(OpRankRelevantChunks, start, err) }(time.Now())
	return i.next.RankRelevantChunks(ctx, query, chunks)
}

func (i *instrumentedOracle) GenerateAnswer(ctx context.Context, query string, history []model.Turn, internalContext string, useWebSearch bool) (out model.Generation, err error) {
	defer func(start time.Time) { observe(OpGenerateAnswer, start, err) }(time.Now())
	return i.next.GenerateAnswer(ctx, query, history, internalContext, useWebSearch)
}

func (i *instrumentedOracle) EnhanceWithWebSearch(ctx context.Context, priorText, query string, history []model.Turn, internalContext string) (out model.Generation, err error) {
	defer func(start time.Time) { observe(OpEnhanceWithWebSearch, start, err) }(time.Now())
	return i.next.EnhanceWithWebSearch(ctx, priorText, query, history, internalContext)
}

func (i *instrumentedOracle) EvaluateSufficiency(ctx context.Context, originalQuery, answer string, history []model.Turn) (out model.Evaluation, err error) {
	defer func(start time.Time) { observe(OpEvaluateSufficiency, start, err) }(time.Now())
	return i.next.EvaluateSufficiency(ctx, originalQuery, answer, history)
}
