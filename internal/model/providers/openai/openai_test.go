package openai

import (
	"strings"
	"testing"

	"github.com/harunnryd/jarvis/internal/model/contract"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	history := []contract.Message{
		{Role: contract.RoleUser, Content: "what is this?", Image: &contract.Image{MIMEType: "image/png", Data: []byte("png")}},
		{Role: contract.RoleAssistant, ToolCalls: []*contract.ToolCall{{ID: "c1", Name: "log_meal", Input: `{"item":"salad"}`}}},
		{Role: contract.RoleTool, ToolCallID: "c1", Content: `{"status":"success"}`},
	}

	msgs := buildMessages("be nice", history)
	require.Len(t, msgs, 4)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Empty(t, msgs[1].Content)
	require.Len(t, msgs[1].MultiContent, 2)
	assert.True(t, strings.HasPrefix(msgs[1].MultiContent[1].ImageURL.URL, "data:image/png;base64,"))
	assert.Equal(t, "log_meal", msgs[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "c1", msgs[3].ToolCallID)
}

func TestBuildToolsDefaultsSchema(t *testing.T) {
	tools := buildTools([]contract.ToolDef{{Name: "noop"}})
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.NotNil(t, tools[0].Function.Parameters)
}
