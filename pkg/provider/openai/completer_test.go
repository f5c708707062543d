package openai

import (
	"testing"

	"github.com/aiacademy/tutor/pkg/provider"

	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	messages := []provider.Message{
		provider.SystemMessage("be a tutor"),
		provider.UserMessage("find go courses"),
		{
			Role: provider.MessageRoleAssistant,
			Content: []provider.Content{
				provider.ToolCallContent(provider.ToolCall{ID: "a", Name: "searchCourses", Arguments: `{"query":"go"}`}),
			},
		},
		provider.ToolMessage("a", "searchCourses", `{"matches":[]}`),
	}

	result, err := convertMessages(messages)
	require.NoError(t, err)
	require.Len(t, result, 4)

	require.NotNil(t, result[0].OfSystem)
	require.NotNil(t, result[1].OfUser)
	require.NotNil(t, result[2].OfAssistant)
	require.Len(t, result[2].OfAssistant.ToolCalls, 1)
	require.NotNil(t, result[3].OfTool)
	require.Equal(t, "a", result[3].OfTool.ToolCallID)
}

func TestConvertFileUnsupported(t *testing.T) {
	_, err := convertFile(&provider.File{ContentType: "audio/mp4"})
	require.Error(t, err)

	_, err = convertFile(&provider.File{ContentType: "image/png", Content: []byte{1}})
	require.NoError(t, err)
}

func TestConvertTools(t *testing.T) {
	tools := convertTools([]provider.Tool{
		{Name: "searchCourses", Description: "search", Parameters: map[string]any{"type": "object"}},
		{Name: ""},
	})

	require.Len(t, tools, 1)
	require.Equal(t, "searchCourses", tools[0].Function.Name)
}

func TestToCompletionReason(t *testing.T) {
	require.Equal(t, provider.CompletionReasonTool, toCompletionReason("tool_calls"))
	require.Equal(t, provider.CompletionReasonStop, toCompletionReason("stop"))
	require.Equal(t, provider.CompletionReason(""), toCompletionReason(""))
}

func TestConvertCompletionRequest(t *testing.T) {
	c, err := NewCompleter("", "gpt-4.1-mini", WithToken("test"))
	require.NoError(t, err)

	maxTokens := 256
	temperature := float32(0.2)

	req, err := c.convertCompletionRequest([]provider.Message{provider.UserMessage("hi")}, &provider.CompleteOptions{
		Stop: []string{"END"},

		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})

	require.NoError(t, err)

	require.Equal(t, "gpt-4.1-mini", req.Model)
	require.Equal(t, []string{"END"}, req.Stop.OfStringArray)
	require.Equal(t, int64(256), req.MaxCompletionTokens.Value)
	require.InDelta(t, 0.2, req.Temperature.Value, 0.001)
	require.True(t, req.StreamOptions.IncludeUsage.Value)
	require.Len(t, req.Messages, 1)
}
