package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name   string
	err    error
	inputs []string
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return "stub " + t.name }
func (t *stubTool) Parameters() map[string]interface{} {
	return mealSchema()
}
func (t *stubTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	t.inputs = append(t.inputs, string(input))
	if t.err != nil {
		return nil, t.err
	}
	return json.RawMessage(`{"status":"success"}`), nil
}

func TestRegistryDefinitionsSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubTool{name: "save_memory"})
	registry.Register(&stubTool{name: " log_meal "})

	_, ok := registry.Get("log_meal")
	require.True(t, ok)

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "log_meal", defs[0].Name)
	assert.Equal(t, "save_memory", defs[1].Name)
}

func TestRegistryFreeze(t *testing.T) {
	registry := NewRegistry()
	registry.Freeze()
	assert.Panics(t, func() { registry.Register(&stubTool{name: "late"}) })
	assert.Panics(t, func() { NewRegistry().Register(&stubTool{name: " "}) })
}

func TestRunnerExecutePassesThroughUnknownArgs(t *testing.T) {
	meal := &stubTool{name: "log_meal"}
	registry := NewRegistry()
	registry.Register(meal)

	var observed []string
	runner := NewRunner(registry, func(name string, ok bool, _ time.Duration) {
		if ok {
			observed = append(observed, name)
		}
	})

	out, err := runner.Execute(context.Background(), &contract.ToolCall{ID: "1", Name: "log_meal", Input: `{"item":"oatmeal","mood":"happy"}`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success"}`, string(out))
	assert.Equal(t, []string{`{"item":"oatmeal","mood":"happy"}`}, meal.inputs)
	assert.Equal(t, []string{"log_meal"}, observed)
}

func TestRunnerExecuteUnknownTool(t *testing.T) {
	runner := NewRunner(NewRegistry(), nil)

	assert.False(t, runner.Has("drop_table"))
	_, err := runner.Execute(context.Background(), &contract.ToolCall{Name: "drop_table"})
	assert.ErrorIs(t, err, jarvisErrors.ErrUnknownTool)
}

func TestRunnerExecuteToolError(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubTool{name: "log_meal", err: errors.New("sheet offline")})
	runner := NewRunner(registry, nil)

	_, err := runner.Execute(context.Background(), &contract.ToolCall{Name: "log_meal", Input: `{"item":"x"}`})
	assert.EqualError(t, err, "sheet offline")
}

func TestRunnerExecuteRejectsNonObject(t *testing.T) {
	meal := &stubTool{name: "log_meal"}
	registry := NewRegistry()
	registry.Register(meal)
	runner := NewRunner(registry, nil)

	_, err := runner.Execute(context.Background(), &contract.ToolCall{Name: "log_meal", Input: `"oatmeal"`})
	assert.ErrorIs(t, err, jarvisErrors.ErrInvalidInput)
	assert.Empty(t, meal.inputs)
}
