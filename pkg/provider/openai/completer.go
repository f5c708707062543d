package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"strings"

	"github.com/aiacademy/tutor/pkg/provider"

	"github.com/openai/openai-go"
)

var _ provider.Completer = (*Completer)(nil)

type Completer struct {
	*Config
	completions openai.ChatCompletionService
}

func NewCompleter(url, model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Completer{
		Config:      cfg,
		completions: openai.NewChatCompletionService(cfg.Options()...),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		if options == nil {
			options = new(provider.CompleteOptions)
		}

		req, err := c.convertCompletionRequest(messages, options)

		if err != nil {
			yield(nil, err)
			return
		}

		stream := c.completions.NewStreaming(ctx, *req)

		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()

			delta := &provider.Completion{
				ID:    chunk.ID,
				Model: c.model,

				Message: &provider.Message{
					Role: provider.MessageRoleAssistant,
				},

				Usage: toUsage(chunk.Usage),
			}

			if len(chunk.Choices) > 0 {
				choice := chunk.Choices[0]

				delta.Reason = toCompletionReason(choice.FinishReason)

				if choice.Delta.Content != "" {
					delta.Message.Content = append(delta.Message.Content, provider.TextContent(choice.Delta.Content))
				}

				for _, t := range choice.Delta.ToolCalls {
					call := provider.ToolCall{
						ID: t.ID,

						Name:      t.Function.Name,
						Arguments: t.Function.Arguments,
					}

					delta.Message.Content = append(delta.Message.Content, provider.ToolCallContent(call))
				}
			}

			if !yield(delta, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield(nil, convertError(err))
		}
	}
}

func (c *Completer) convertCompletionRequest(input []provider.Message, options *provider.CompleteOptions) (*openai.ChatCompletionNewParams, error) {
	messages, err := convertMessages(input)

	if err != nil {
		return nil, err
	}

	req := &openai.ChatCompletionNewParams{
		Model: c.model,

		Messages: messages,
	}

	if !strings.Contains(c.url, "api.mistral.ai") {
		req.StreamOptions = openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		}
	}

	if tools := convertTools(options.Tools); len(tools) > 0 {
		req.Tools = tools
	}

	if options.Stop != nil {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: options.Stop,
		}
	}

	if options.MaxTokens != nil {
		req.MaxCompletionTokens = openai.Int(int64(*options.MaxTokens))
	}

	if options.Temperature != nil {
		req.Temperature = openai.Float(float64(*options.Temperature))
	}

	return req, nil
}

func convertMessages(input []provider.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	var result []openai.ChatCompletionMessageParamUnion

	for _, m := range input {
		switch m.Role {
		case provider.MessageRoleSystem:
			parts := []openai.ChatCompletionContentPartTextParam{}

			for _, c := range m.Content {
				if c.Text != "" {
					parts = append(parts, openai.ChatCompletionContentPartTextParam{Text: c.Text})
				}
			}

			result = append(result, openai.SystemMessage(parts))

		case provider.MessageRoleUser:
			parts := []openai.ChatCompletionContentPartUnionParam{}

			for _, c := range m.Content {
				if c.Text != "" {
					parts = append(parts, openai.TextContentPart(c.Text))
				}

				if c.File != nil {
					part, err := convertFile(c.File)

					if err != nil {
						return nil, err
					}

					parts = append(parts, part)
				}

				if c.ToolResult != nil {
					result = append(result, openai.ToolMessage(c.ToolResult.Data, c.ToolResult.ID))
				}
			}

			if len(parts) > 0 {
				result = append(result, openai.UserMessage(parts))
			}

		case provider.MessageRoleAssistant:
			message := openai.ChatCompletionAssistantMessageParam{}

			var content []openai.ChatCompletionAssistantMessageParamContentArrayOfContentPartUnion

			for _, c := range m.Content {
				if c.Text != "" {
					content = append(content, openai.ChatCompletionAssistantMessageParamContentArrayOfContentPartUnion{
						OfText: &openai.ChatCompletionContentPartTextParam{
							Text: c.Text,
						},
					})
				}

				if c.ToolCall != nil {
					call := openai.ChatCompletionMessageToolCallParam{
						ID: c.ToolCall.ID,

						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      c.ToolCall.Name,
							Arguments: c.ToolCall.Arguments,
						},
					}

					message.ToolCalls = append(message.ToolCalls, call)
				}
			}

			if len(content) > 0 {
				message.Content.OfArrayOfContentParts = content
			}

			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &message})
		}
	}

	return result, nil
}

func convertFile(file *provider.File) (openai.ChatCompletionContentPartUnionParam, error) {
	mime := file.ContentType
	content := base64.StdEncoding.EncodeToString(file.Content)

	switch mime {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
		imageURL := openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:" + mime + ";base64," + content,
		}

		return openai.ImageContentPart(imageURL), nil
	}

	return openai.ChatCompletionContentPartUnionParam{}, fmt.Errorf("unsupported content type %q", mime)
}

func convertTools(tools []provider.Tool) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam

	for _, t := range tools {
		if t.Name == "" {
			continue
		}

		function := openai.FunctionDefinitionParam{
			Name: t.Name,

			Parameters: openai.FunctionParameters(t.Parameters),
		}

		if t.Description != "" {
			function.Description = openai.String(t.Description)
		}

		if t.Strict != nil {
			function.Strict = openai.Bool(*t.Strict)
		}

		result = append(result, openai.ChatCompletionToolParam{
			Function: function,
		})
	}

	return result
}

func toCompletionReason(val string) provider.CompletionReason {
	switch val {
	case "stop":
		return provider.CompletionReasonStop

	case "length":
		return provider.CompletionReasonLength

	case "tool_calls":
		return provider.CompletionReasonTool

	case "content_filter":
		return provider.CompletionReasonFilter

	default:
		return ""
	}
}

func toUsage(metadata openai.CompletionUsage) *provider.Usage {
	if metadata.TotalTokens == 0 {
		return nil
	}

	return &provider.Usage{
		InputTokens:  int(metadata.PromptTokens),
		OutputTokens: int(metadata.CompletionTokens),
	}
}
