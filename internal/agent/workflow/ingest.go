package workflow

import (
	"context"
	"fmt"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/ingest"
)

// Ingest replaces the chunk store with the chunks of files. The batch is
// all-or-nothing: any failing file clears the store and fails stage 0.
func (o *Orchestrator) Ingest(ctx context.Context, files []ingest.File) error {
	if len(files) == 0 {
		return errx.Validation(ErrNoFiles)
	}

	o.mu.Lock()
	if o.running || o.indexing {
		o.mu.Unlock()
		return errx.Conflict(ErrBusy)
	}
	o.indexing = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.indexing = false
		o.mu.Unlock()
		o.persist(ctx)
	}()

	n := len(files)
	o.registry.SetOutput(model.StageDocumentProcessing, model.StatusRunning, fmt.Sprintf("Processing %d file(s)...", n))
	o.log.Appendf("Agent 0 [Document Processing] starting for %d file(s)...", n)

	chunks, err := ingest.Batch(ctx, files, o.cfg.MaxChunkChars, o.log.Appendf)
	if err != nil {
		msg := errx.SafeMessage(err)
		o.chunks.Clear()
		o.registry.SetOutput(model.StageDocumentProcessing, model.StatusFailed, msg)
		o.log.Appendf("Agent 0 [Document Processing] failed: %s", msg)
		return err
	}

	o.chunks.Replace(chunks)
	o.registry.SetOutput(model.StageDocumentProcessing, model.StatusCompleted,
		fmt.Sprintf("Successfully processed %d file(s) into %d chunks.", n, len(chunks)))
	o.log.Append("Agent 0 [Document Processing] completed.")
	return nil
}

// NewSession wipes the whole session, including the document store.
func (o *Orchestrator) NewSession(ctx context.Context) error {
	o.mu.Lock()
	if o.running || o.indexing {
		o.mu.Unlock()
		return errx.Conflict(ErrBusy)
	}
	o.registry.Reset()
	o.log.Clear()
	o.ledger.Clear()
	o.chunks.Clear()
	o.pending = nil
	o.setPhaseLocked(model.PhaseIdle)
	o.mu.Unlock()

	o.persist(ctx)
	return nil
}
