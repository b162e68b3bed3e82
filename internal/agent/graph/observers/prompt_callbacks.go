package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

// newPromptHandler logs rendered prompt sizes; prompt bodies can carry whole
// documents and are not logged.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			size := 0
			for _, m := range output.Result {
				if m != nil {
					size += len(m.Content)
				}
			}
			logx.Debug().Str("component", "prompt").Str("name", nodeName(info)).
				Int("messages", len(output.Result)).Int("chars", size).Msg("prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("component", "prompt").Str("name", nodeName(info)).Msg("prompt error")
			return ctx
		},
	}
}
