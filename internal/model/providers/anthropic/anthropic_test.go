package anthropic

import (
	"testing"

	"github.com/harunnryd/jarvis/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessagesFoldsToolResults(t *testing.T) {
	history := []contract.Message{
		{Role: contract.RoleUser, Content: "log squats and lunch", Image: &contract.Image{MIMEType: "image/jpeg", Data: []byte("jpg")}},
		{Role: contract.RoleAssistant, ToolCalls: []*contract.ToolCall{
			{ID: "t1", Name: "log_workout", Input: `{"exercise":"squat"}`},
			{ID: "t2", Name: "log_meal", Input: `{"item":"bibimbap"}`},
		}},
		{Role: contract.RoleTool, ToolCallID: "t1", Content: `{"status":"success"}`},
		{Role: contract.RoleTool, ToolCallID: "t2", Content: `{"status":"success"}`},
	}

	msgs := buildMessages(history)
	require.Len(t, msgs, 3)

	require.Len(t, msgs[0].Content, 2)
	assert.NotNil(t, msgs[0].Content[0].OfImage)

	require.Len(t, msgs[1].Content, 2)
	assert.Equal(t, "log_workout", msgs[1].Content[0].OfToolUse.Name)

	require.Len(t, msgs[2].Content, 2)
	assert.Equal(t, "t2", msgs[2].Content[1].OfToolResult.ToolUseID)
}

func TestBuildToolsCopiesRequired(t *testing.T) {
	tools := buildTools([]contract.ToolDef{{
		Name: "log_workout",
		Parameters: map[string]interface{}{
			"properties": map[string]interface{}{"exercise": map[string]interface{}{"type": "string"}},
			"required":   []string{"exercise"},
		},
	}})
	require.Len(t, tools, 1)
	assert.Equal(t, []string{"exercise"}, tools[0].OfTool.InputSchema.Required)
}
