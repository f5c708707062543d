package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aiacademy/tutor/pkg/provider"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertContents(t *testing.T) {
	messages := []provider.Message{
		provider.SystemMessage("be a tutor"),
		{
			Role: provider.MessageRoleUser,
			Content: []provider.Content{
				provider.TextContent("summarize"),
				provider.FileContent(&provider.File{Content: []byte("audio"), ContentType: "audio/mp4"}),
			},
		},
		{
			Role: provider.MessageRoleAssistant,
			Content: []provider.Content{
				provider.ToolCallContent(provider.ToolCall{ID: "a", Name: "searchCourses", Arguments: `{"query":"go"}`}),
				provider.ToolCallContent(provider.ToolCall{ID: "b", Name: "searchCourses", Arguments: `{"query":"rust"}`}),
			},
		},
		provider.ToolMessage("a", "searchCourses", `{"matches":[]}`),
		provider.ToolMessage("b", "searchCourses", `[1,2]`),
	}

	contents, err := convertContents(messages)
	require.NoError(t, err)
	require.Len(t, contents, 3)

	require.Equal(t, genai.RoleUser, contents[0].Role)
	require.Equal(t, "summarize", contents[0].Parts[0].Text)
	require.Equal(t, "audio/mp4", contents[0].Parts[1].InlineData.MIMEType)

	require.Equal(t, genai.RoleModel, contents[1].Role)
	require.Equal(t, "searchCourses", contents[1].Parts[0].FunctionCall.Name)
	require.Equal(t, map[string]any{"query": "go"}, contents[1].Parts[0].FunctionCall.Args)

	require.Len(t, contents[2].Parts, 2)
	require.Equal(t, "a", contents[2].Parts[0].FunctionResponse.ID)
	require.Equal(t, "searchCourses", contents[2].Parts[0].FunctionResponse.Name)
	require.Equal(t, map[string]any{"matches": []any{}}, contents[2].Parts[0].FunctionResponse.Response)
	require.Equal(t, map[string]any{"output": []any{1.0, 2.0}}, contents[2].Parts[1].FunctionResponse.Response)

	system := convertSystem(messages)
	require.Equal(t, "be a tutor", system.Parts[0].Text)
}

func TestConvertFileUnsupported(t *testing.T) {
	_, err := convertFile(&provider.File{ContentType: "application/zip"})
	require.Error(t, err)

	part, err := convertFile(&provider.File{ContentType: "Audio/MP4; codecs=mp4a"})
	require.NoError(t, err)
	require.Equal(t, "audio/mp4", part.InlineData.MIMEType)
}

func TestToContent(t *testing.T) {
	content := &genai.Content{
		Role: genai.RoleModel,
		Parts: []*genai.Part{
			{Text: "thinking", Thought: true},
			{Text: "answer"},
			{FunctionCall: &genai.FunctionCall{Name: "searchCourses", Args: map[string]any{"query": "go"}}},
		},
	}

	parts := toContent(content)
	require.Len(t, parts, 2)
	require.Equal(t, "answer", parts[0].Text)
	require.NotEmpty(t, parts[1].ToolCall.ID)
	require.JSONEq(t, `{"query":"go"}`, parts[1].ToolCall.Arguments)

	require.Equal(t, provider.CompletionReasonTool, toCompletionReason(&genai.Candidate{Content: content}))
	require.Equal(t, provider.CompletionReasonLength, toCompletionReason(&genai.Candidate{FinishReason: genai.FinishReasonMaxTokens}))
}

func TestComplete(t *testing.T) {
	var request map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:streamGenerateContent") {
			http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
			return
		}

		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &request)

		w.Header().Set("Content-Type", "text/event-stream")

		chunks := []string{
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hel"}]}}]}`,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"lo"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":2}}`,
		}

		for _, c := range chunks {
			io.WriteString(w, "data: "+c+"\r\n\r\n")
		}
	}))

	defer server.Close()

	c, err := NewCompleter("", WithToken("test"), WithURL(server.URL))
	require.NoError(t, err)

	var acc provider.CompletionAccumulator

	for completion, err := range c.Complete(context.Background(), []provider.Message{provider.SystemMessage("sys"), provider.UserMessage("hi")}, nil) {
		require.NoError(t, err)
		acc.Add(*completion)
	}

	result := acc.Result()
	require.Equal(t, "Hello", result.Message.Text())
	require.Equal(t, provider.CompletionReasonStop, result.Reason)
	require.Equal(t, 4, result.Usage.InputTokens)

	require.True(t, strings.Contains(mustJSON(request), "sys"))
}

func mustJSON(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}
