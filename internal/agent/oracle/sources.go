package oracle

import (
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// DedupeSources keeps the first source for every uri.
func DedupeSources(sources []model.Source) []model.Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(sources))
	out := make([]model.Source, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.URI]; ok {
			continue
		}
		seen[s.URI] = struct{}{}
		out = append(out, s)
	}
	return out
}

// groundingSources extracts web sources of the first candidate. Chunks
// without both a uri and a title are ignored.
func groundingSources(resp *genai.GenerateContentResponse) []model.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var sources []model.Source
	for _, gc := range meta.GroundingChunks {
		if gc == nil || gc.Web == nil || gc.Web.URI == "" || gc.Web.Title == "" {
			continue
		}
		sources = append(sources, model.Source{URI: gc.Web.URI, Title: gc.Web.Title})
	}
	return DedupeSources(sources)
}
