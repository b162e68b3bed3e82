package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
)

// Batch extracts and chunks every file concurrently and joins the results in
// file order. Any failure fails the whole batch and no chunks are returned.
// logf receives progress lines; it must be safe for concurrent use.
func Batch(ctx context.Context, files []File, maxChars int, logf func(format string, args ...any)) ([]model.Chunk, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	results := make([][]model.Chunk, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logf("Extracting text from: %s", f.Name)
			text, ok, err := ExtractText(f)
			if err != nil {
				logf("Failed to process file %s: %v", f.Name, err)
				return errx.Ingestion(f.Name, err)
			}
			if !ok {
				logf("Skipping unsupported file type: %s (%s)", f.Name, f.MediaType())
				return nil
			}
			results[i] = ChunkText(text, f.Name, maxChars)
			logf("Processed %s, created %d chunks.", f.Name, len(results[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest %d file(s): %w", len(files), err)
	}

	var all []model.Chunk
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
