package nodes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
)

// BuildInternalContext renders chunks as the internal context handed to the
// oracle. Every chunk appears in full, so a member's leading characters are
// always found verbatim in the result.
func BuildInternalContext(chunks []model.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("Source File: %s\nContent: %s", c.SourceFile, c.Content)
	}
	return strings.Join(parts, "\n---\n")
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failureKey struct{}

// Failure keeps the first error raised by a node during one run, unwrapped
// by the graph engine.
type Failure struct {
	mu  sync.Mutex
	err error
}

// WithFailure attaches a Failure to ctx for one run.
func WithFailure(ctx context.Context) (context.Context, *Failure) {
	f := &Failure{}
	return context.WithValue(ctx, failureKey{}, f), f
}

func (f *Failure) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// fail records err on the run's Failure, if any, and returns it.
func fail(ctx context.Context, err error) error {
	if f, ok := ctx.Value(failureKey{}).(*Failure); ok {
		f.mu.Lock()
		if f.err == nil {
			f.err = err
		}
		f.mu.Unlock()
	}
	return err
}
