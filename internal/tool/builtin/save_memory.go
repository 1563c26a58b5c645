package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/journal"
	toolcore "github.com/harunnryd/jarvis/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("save_memory", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &SaveMemoryTool{journal: options.Journal, notifier: options.Notifier}, nil
	})
}

// SaveMemoryTool keeps a durable fact about the user (goals, allergies, injuries).
type SaveMemoryTool struct {
	journal  *journal.Journal
	notifier toolcore.Notifier
}

func (t *SaveMemoryTool) Name() string { return "save_memory" }

func (t *SaveMemoryTool) Description() string {
	return "Remember a lasting fact about the user, such as a goal, allergy or injury."
}

func (t *SaveMemoryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"fact": map[string]interface{}{
				"type":        "string",
				"description": "The fact to remember, in one sentence",
			},
		},
		"required": []string{"fact"},
	}
}

func (t *SaveMemoryTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Fact string `json:"fact"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, jarvisErrors.InvalidInput(fmt.Sprintf("save_memory: %v", err))
	}

	if err := t.journal.SaveMemory(ctx, args.Fact); err != nil {
		toolcore.Notify(ctx, t.notifier, "⚠️ Couldn't save memory: "+jarvisErrors.UserMessage(err))
		return nil, err
	}

	toolcore.Notify(ctx, t.notifier, "🧠 Remembered")
	return success(nil)
}
