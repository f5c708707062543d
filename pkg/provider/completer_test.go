package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompletionAccumulator(t *testing.T) {
	var acc CompletionAccumulator

	acc.Add(Completion{ID: "1", Model: "m", Message: &Message{Content: []Content{TextContent("Hello ")}}})
	acc.Add(Completion{Message: &Message{Content: []Content{TextContent("world")}}, Usage: &Usage{InputTokens: 3}})
	acc.Add(Completion{Message: &Message{Content: []Content{ToolCallContent(ToolCall{ID: "a", Name: "searchCourses", Arguments: `{"query":`})}}})
	acc.Add(Completion{Message: &Message{Content: []Content{ToolCallContent(ToolCall{Arguments: `"go"}`})}}, Usage: &Usage{OutputTokens: 5}})
	acc.Add(Completion{Message: &Message{Content: []Content{ToolCallContent(ToolCall{ID: "b", Name: "searchCourses", Arguments: `{}`})}}})

	result := acc.Result()

	require.Equal(t, "1", result.ID)
	require.Equal(t, MessageRoleAssistant, result.Message.Role)
	require.Equal(t, CompletionReasonTool, result.Reason)
	require.Equal(t, "Hello world", result.Message.Text())

	calls := result.Message.ToolCalls()
	require.Len(t, calls, 2)
	require.Equal(t, ToolCall{ID: "a", Name: "searchCourses", Arguments: `{"query":"go"}`}, calls[0])
	require.Equal(t, "b", calls[1].ID)

	require.Equal(t, &Usage{InputTokens: 3, OutputTokens: 5}, result.Usage)
}

func TestCompletionAccumulatorToolCallWithoutID(t *testing.T) {
	var acc CompletionAccumulator

	acc.Add(Completion{Message: &Message{Content: []Content{ToolCallContent(ToolCall{Name: "searchCourses", Arguments: `{}`})}}})

	calls := acc.Result().Message.ToolCalls()
	require.Len(t, calls, 1)
	require.Equal(t, "searchCourses", calls[0].Name)
}

func TestMessageToolResult(t *testing.T) {
	m := ToolMessage("id-1", "searchCourses", `{"matches":[]}`)

	id, data, ok := m.ToolResult()
	require.True(t, ok)
	require.Equal(t, "id-1", id)
	require.Equal(t, `{"matches":[]}`, data)

	_, _, ok = UserMessage("hi").ToolResult()
	require.False(t, ok)
}
