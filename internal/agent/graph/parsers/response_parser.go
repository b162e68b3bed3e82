package parsers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxIDs        = 5000
	maxErrSnippet = 200
)

// NoJustification replaces an empty evaluation justification.
const NoJustification = "No justification provided."

type rankPayload struct {
	RelevantChunkIDs []string `json:"relevantChunkIds"`
}

type evaluationPayload struct {
	ConfidenceScore *float64 `json:"confidenceScore"`
	Justification   string   `json:"justification"`
}

// ParseRankResponse decodes {"relevantChunkIds": [...]} and returns the
// matching chunks in their original order. Unknown ids are ignored.
func ParseRankResponse(content string, chunks []model.Chunk) (out []model.Chunk, err error) {
	defer recoverParser("rank_parser", &err)

	var p rankPayload
	if err := decodeJSON(content, &p); err != nil {
		return nil, err
	}
	if len(p.RelevantChunkIDs) > maxIDs {
		return nil, fmt.Errorf("too many chunk ids: %d", len(p.RelevantChunkIDs))
	}

	wanted := make(map[string]struct{}, len(p.RelevantChunkIDs))
	for _, id := range p.RelevantChunkIDs {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	for _, c := range chunks {
		if _, ok := wanted[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ParseEvaluation decodes {"confidenceScore": n, "justification": "..."}.
// A missing score counts as 0 and scores are clamped to [0, 100].
func ParseEvaluation(content string) (eval model.Evaluation, err error) {
	defer recoverParser("evaluation_parser", &err)

	var p evaluationPayload
	if err := decodeJSON(content, &p); err != nil {
		return model.Evaluation{}, err
	}

	score := 0
	if p.ConfidenceScore != nil && !math.IsNaN(*p.ConfidenceScore) {
		score = clampInt(int(math.Round(*p.ConfidenceScore)), 0, 100)
	}
	justification := strings.TrimSpace(p.Justification)
	if justification == "" {
		justification = NoJustification
	}
	return model.Evaluation{ConfidenceScore: score, Justification: justification}, nil
}

// ParseRefinedQuery trims the model output; an empty rewrite is an error.
func ParseRefinedQuery(content string) (string, error) {
	q := strings.TrimSpace(content)
	if q == "" {
		return "", fmt.Errorf("empty refined query")
	}
	return q, nil
}

func decodeJSON(content string, v any) error {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "response_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("response too large")
		return fmt.Errorf("response too large: %d bytes", len(content))
	}
	s := stripFences(content)
	if s == "" {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("invalid json %q: %w", safeSnippet(s), err)
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func recoverParser(component string, err *error) {
	if r := recover(); r != nil {
		logx.Error().Str("component", component).Msgf("panic recovered: %v", r)
		*err = errx.New(fmt.Errorf("%s panic", component), http.StatusInternalServerError, errx.SystemErrorMessage)
	}
}

func safeSnippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet] + "..."
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
