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
	toolcore.RegisterBuiltin("log_workout", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &LogWorkoutTool{journal: options.Journal, notifier: options.Notifier}, nil
	})
}

// LogWorkoutTool records one exercise in its body-part or cardio sheet.
type LogWorkoutTool struct {
	journal  *journal.Journal
	notifier toolcore.Notifier
}

func (t *LogWorkoutTool) Name() string { return "log_workout" }

func (t *LogWorkoutTool) Description() string {
	return "Log an exercise the user did. Strength work goes to its body-part sheet, cardio to the cardio sheet."
}

func (t *LogWorkoutTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"exercise": map[string]interface{}{
				"type":        "string",
				"description": "Exercise name, e.g. bench press or running",
			},
			"details": map[string]interface{}{
				"type":        "string",
				"description": "Weight, reps and sets (e.g. 60kg 10 reps 3 sets, 60x10 70x8) or duration for cardio",
			},
		},
		"required": []string{"exercise", "details"},
	}
}

func (t *LogWorkoutTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Exercise string `json:"exercise"`
		Details  string `json:"details"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, jarvisErrors.InvalidInput(fmt.Sprintf("log_workout: %v", err))
	}

	entry, err := t.journal.LogWorkout(ctx, args.Exercise, args.Details)
	if err != nil {
		toolcore.Notify(ctx, t.notifier, "⚠️ Couldn't log workout: "+jarvisErrors.UserMessage(err))
		return nil, err
	}

	icon := "💪"
	if entry.Sheet == "cardio" {
		icon = "🏃"
	}
	toolcore.Notify(ctx, t.notifier, fmt.Sprintf("%s Logged: %s (%s)", icon, entry.Exercise, entry.Sheet))
	return success(entry)
}
