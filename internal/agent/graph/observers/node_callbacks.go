package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

type startKey struct{}

// newNodeHandler logs the start, duration and failure of every pipeline node.
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			logx.Debug().Str("node", nodeName(info)).Msg("node start")
			return context.WithValue(ctx, startKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			logx.Debug().Str("node", nodeName(info)).Dur("elapsed", elapsed(ctx)).Msg("node end")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("node", nodeName(info)).Dur("elapsed", elapsed(ctx)).Msg("node failed")
			return ctx
		}).
		Build()
}

func nodeName(info *einocb.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}

func elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}
