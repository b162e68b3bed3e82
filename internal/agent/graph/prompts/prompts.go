package prompts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/*.txt
var templates embed.FS

// Task names a prompt pair under template/: <task>_system.txt and an
// optional <task>_user.txt.
type Task string

const (
	TaskRefine         Task = "refine"
	TaskRefineFeedback Task = "refine_feedback"
	TaskRank           Task = "rank"
	TaskGenerate       Task = "generate"
	TaskEnhance        Task = "enhance"
	TaskEvaluate       Task = "evaluate"
)

// Rendered is the output of a task prompt. User is empty for tasks whose
// user content is the conversation itself.
type Rendered struct {
	System string
	User   string
}

// Messages returns the rendered prompt as chat messages.
func (r Rendered) Messages() []*schema.Message {
	msgs := []*schema.Message{schema.SystemMessage(r.System)}
	if r.User != "" {
		msgs = append(msgs, schema.UserMessage(r.User))
	}
	return msgs
}

// Render formats a task prompt through the Eino prompt component (Go
// templates), which also emits prompt callbacks.
func Render(ctx context.Context, task Task, vars map[string]any) (Rendered, error) {
	system, err := templates.ReadFile(fmt.Sprintf("template/%s_system.txt", task))
	if err != nil {
		return Rendered{}, fmt.Errorf("%s prompt: %w", task, err)
	}
	templatesIn := []schema.MessagesTemplate{schema.SystemMessage(string(system))}

	user, err := templates.ReadFile(fmt.Sprintf("template/%s_user.txt", task))
	switch {
	case err == nil:
		templatesIn = append(templatesIn, schema.UserMessage(string(user)))
	case !errors.Is(err, fs.ErrNotExist):
		return Rendered{}, fmt.Errorf("%s prompt: %w", task, err)
	}

	tpl := prompt.FromMessages(schema.GoTemplate, templatesIn...)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return Rendered{}, fmt.Errorf("%s prompt render: %w", task, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return Rendered{}, fmt.Errorf("%s prompt render: empty result", task)
	}

	out := Rendered{System: strings.TrimSpace(msgs[0].Content)}
	if len(msgs) > 1 && msgs[1] != nil {
		out.User = strings.TrimSpace(msgs[1].Content)
	}
	return out, nil
}
