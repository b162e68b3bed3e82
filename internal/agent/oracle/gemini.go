package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph/conversations"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph/prompts"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

const msgRankFailed = "Failed to rank document chunks."

var errEmptyResponse = errors.New("empty model response")

// Gemini implements Oracle on the Gemini API. Query rewriting goes through
// the Eino chat model; the structured and search-grounded calls use the
// genai client directly.
type Gemini struct {
	client  *genai.Client
	refiner einomodel.BaseChatModel
	history *conversations.HistoryManager
	cfg     model.OracleConfig
}

func NewGemini(client *genai.Client, refiner einomodel.BaseChatModel, cfg model.OracleConfig) *Gemini {
	return &Gemini{
		client:  client,
		refiner: refiner,
		history: conversations.NewHistoryManager(cfg.MaxHistoryTurns),
		cfg:     cfg,
	}
}

// NewGeminiFromConfig builds the client, the refiner model and the oracle.
func NewGeminiFromConfig(ctx context.Context, config ClientConfig) (*Gemini, error) {
	client, err := NewGenAIClient(ctx, config)
	if err != nil {
		return nil, err
	}
	refiner, err := NewRefinerModel(ctx, client, config.Oracle)
	if err != nil {
		return nil, err
	}
	return NewGemini(client, refiner, config.Oracle), nil
}

func (g *Gemini) RefineQuery(ctx context.Context, originalQuery string, history []model.Turn) (string, error) {
	r, err := prompts.Render(ctx, prompts.TaskRefine, map[string]any{
		"Transcript": g.history.Transcript(g.history.Prior(history)),
		"Query":      originalQuery,
	})
	if err != nil {
		return "", errx.WrapOracle(MsgRefineFailed, err)
	}
	return g.refine(ctx, OpRefineQuery, r, MsgRefineFailed)
}

func (g *Gemini) RefineQueryWithFeedback(ctx context.Context, originalQuery string, history []model.Turn, feedback, justification string) (string, error) {
	r, err := prompts.Render(ctx, prompts.TaskRefineFeedback, map[string]any{
		"Transcript":    g.history.Transcript(g.history.Prior(history)),
		"Query":         originalQuery,
		"Feedback":      feedback,
		"Justification": justification,
	})
	if err != nil {
		return "", errx.WrapOracle(MsgRefineFeedbackFailed, err)
	}
	return g.refine(ctx, OpRefineQueryWithFeedback, r, MsgRefineFeedbackFailed)
}

func (g *Gemini) refine(ctx context.Context, op string, r prompts.Rendered, failMsg string) (string, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      op,
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	})
	out, err := g.refiner.Generate(ctx, r.Messages())
	if err != nil {
		logx.Error().Err(err).Str("operation", op).Msg("refiner call failed")
		return "", errx.WrapOracle(failMsg, err)
	}
	if out.ResponseMeta != nil {
		g.logUsage(op, out.ResponseMeta.Usage)
	}
	q, err := parsers.ParseRefinedQuery(out.Content)
	if err != nil {
		return "", errx.WrapOracle(failMsg, err)
	}
	return q, nil
}

type chunkPreview struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func (g *Gemini) RankRelevantChunks(ctx context.Context, query string, chunks []model.Chunk) ([]model.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	previews := make([]chunkPreview, len(chunks))
	for i, c := range chunks {
		previews[i] = chunkPreview{ID: c.ID, Content: truncate(c.Content, g.cfg.RankPreviewChars) + "..."}
	}
	b, err := json.Marshal(previews)
	if err != nil {
		return nil, errx.WrapOracle(msgRankFailed, err)
	}

	r, err := prompts.Render(ctx, prompts.TaskRank, map[string]any{"Query": query, "Chunks": string(b)})
	if err != nil {
		return nil, errx.WrapOracle(msgRankFailed, err)
	}
	resp, err := g.call(ctx, OpRankRelevantChunks, userContents(r.User), &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(r.System),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    rankSchema,
	})
	if err != nil {
		return nil, errx.WrapOracle(msgRankFailed, err)
	}
	ranked, err := parsers.ParseRankResponse(resp.Text(), chunks)
	if err != nil {
		return nil, errx.WrapOracle(msgRankFailed, err)
	}
	return ranked, nil
}

func (g *Gemini) GenerateAnswer(ctx context.Context, query string, history []model.Turn, internalContext string, useWebSearch bool) (model.Generation, error) {
	r, err := prompts.Render(ctx, prompts.TaskGenerate, map[string]any{
		"InternalContext": internalContext,
		"UseWebSearch":    useWebSearch,
	})
	if err != nil {
		return model.Generation{}, errx.WrapOracle(MsgGenerateFailed, err)
	}
	cfg := &genai.GenerateContentConfig{SystemInstruction: systemInstruction(r.System)}
	if useWebSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := g.call(ctx, OpGenerateAnswer, g.history.Contents(history, query), cfg)
	if err != nil {
		return model.Generation{}, errx.WrapOracle(MsgGenerateFailed, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return model.Generation{}, errx.WrapOracle(MsgGenerateFailed, errEmptyResponse)
	}
	gen := model.Generation{Text: text}
	if useWebSearch {
		gen.Sources = groundingSources(resp)
	}
	return gen, nil
}

func (g *Gemini) EnhanceWithWebSearch(ctx context.Context, priorText, query string, history []model.Turn, internalContext string) (model.Generation, error) {
	r, err := prompts.Render(ctx, prompts.TaskEnhance, map[string]any{
		"PriorText":       priorText,
		"InternalContext": internalContext,
	})
	if err != nil {
		return model.Generation{}, errx.WrapOracle(MsgEnhanceFailed, err)
	}
	resp, err := g.call(ctx, OpEnhanceWithWebSearch, g.history.Contents(history, query), &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(r.System),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return model.Generation{}, errx.WrapOracle(MsgEnhanceFailed, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return model.Generation{}, errx.WrapOracle(MsgEnhanceFailed, errEmptyResponse)
	}
	return model.Generation{Text: text, Sources: groundingSources(resp)}, nil
}

func (g *Gemini) EvaluateSufficiency(ctx context.Context, originalQuery, answer string, history []model.Turn) (model.Evaluation, error) {
	r, err := prompts.Render(ctx, prompts.TaskEvaluate, map[string]any{
		"Transcript": g.history.Transcript(g.history.Recent(history)),
		"Query":      originalQuery,
		"Response":   truncate(answer, g.cfg.EvalResponseChars),
	})
	if err != nil {
		return model.Evaluation{}, fmt.Errorf("evaluate prompt: %w", err)
	}
	resp, err := g.call(ctx, OpEvaluateSufficiency, userContents(r.User), &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(r.System),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    evaluationSchema,
	})
	if err != nil {
		return model.Evaluation{}, err
	}
	return parsers.ParseEvaluation(resp.Text())
}

func (g *Gemini) call(ctx context.Context, op string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, cfg)
	if err != nil {
		logx.Error().Err(err).Str("operation", op).Str("model", g.cfg.Model).Msg("gemini call failed")
		return nil, err
	}
	if resp == nil {
		return nil, errEmptyResponse
	}
	if u := resp.UsageMetadata; u != nil {
		g.logUsage(op, &schema.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		})
	}
	return resp, nil
}

func (g *Gemini) logUsage(op string, usage *schema.TokenUsage) {
	if usage == nil {
		return
	}
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(g.cfg.Model))
	logx.Debug().
		Str("operation", op).
		Str("model", g.cfg.Model).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

var rankSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"relevantChunkIds": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "An array of IDs of the document chunks that are relevant to the query.",
		},
	},
	Required: []string{"relevantChunkIds"},
}

var evaluationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"confidenceScore": {
			Type:        genai.TypeInteger,
			Description: "A score from 0 to 100 representing confidence in the response's quality.",
		},
		"justification": {
			Type:        genai.TypeString,
			Description: "A brief, one-sentence justification for the score.",
		},
	},
	Required: []string{"confidenceScore", "justification"},
}

func systemInstruction(text string) *genai.Content {
	return genai.NewContentFromText(text, genai.RoleUser)
}

func userContents(text string) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
}

// truncate cuts s to at most n characters; n <= 0 keeps s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

var _ Oracle = (*Gemini)(nil)
