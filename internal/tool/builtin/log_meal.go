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
	toolcore.RegisterBuiltin("log_meal", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &LogMealTool{journal: options.Journal, notifier: options.Notifier}, nil
	})
}

// LogMealTool appends a food item to today's diet row.
type LogMealTool struct {
	journal  *journal.Journal
	notifier toolcore.Notifier
}

func (t *LogMealTool) Name() string { return "log_meal" }

func (t *LogMealTool) Description() string {
	return "Log a food item the user ate into today's diet sheet."
}

func (t *LogMealTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"item": map[string]interface{}{
				"type":        "string",
				"description": "Food name, e.g. oatmeal",
			},
			"quantity": map[string]interface{}{
				"type":        "string",
				"description": "Amount eaten, e.g. 1 bowl. Defaults to 1 serving",
			},
			"meal_type": map[string]interface{}{
				"type":        "string",
				"description": "Meal category",
				"enum":        []string{"breakfast", "lunch", "dinner", "snack", "supplement"},
			},
		},
		"required": []string{"item"},
	}
}

func (t *LogMealTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args struct {
		Item     string `json:"item"`
		Quantity string `json:"quantity"`
		MealType string `json:"meal_type"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, jarvisErrors.InvalidInput(fmt.Sprintf("log_meal: %v", err))
	}

	entry, err := t.journal.LogMeal(ctx, args.Item, args.Quantity, args.MealType)
	if err != nil {
		toolcore.Notify(ctx, t.notifier, "⚠️ Couldn't log meal: "+jarvisErrors.UserMessage(err))
		return nil, err
	}

	toolcore.Notify(ctx, t.notifier, "🥗 Logged: "+args.Item)
	return success(entry)
}
