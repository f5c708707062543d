package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aiacademy/tutor/pkg/provider"

	"github.com/anthropics/anthropic-sdk-go"
)

var _ provider.Completer = (*Completer)(nil)

type Completer struct {
	*Config
	messages anthropic.MessageService
}

func NewCompleter(url, model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.model == "" {
		return nil, errors.New("model is required")
	}

	return &Completer{
		Config:   cfg,
		messages: anthropic.NewMessageService(cfg.Options()...),
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		if options == nil {
			options = new(provider.CompleteOptions)
		}

		req, err := c.convertMessageRequest(messages, options)

		if err != nil {
			yield(nil, err)
			return
		}

		message := anthropic.Message{}
		stream := c.messages.NewStreaming(ctx, *req)

		defer stream.Close()

		for stream.Next() {
			event := stream.Current()

			// tool use blocks without input never receive a json delta
			if _, ok := event.AsAny().(anthropic.ContentBlockStopEvent); ok && len(message.Content) > 0 {
				block := &message.Content[len(message.Content)-1]

				if block.Type == "tool_use" && len(block.Input) == 0 {
					block.Input = json.RawMessage([]byte("{}"))

					if !yield(c.delta(message.ID, provider.ToolCallContent(provider.ToolCall{Arguments: "{}"})), nil) {
						return
					}
				}
			}

			if err := message.Accumulate(event); err != nil {
				yield(nil, err)
				return
			}

			switch event := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				switch block := event.ContentBlock.AsAny().(type) {
				case anthropic.TextBlock:
					if block.Text == "" {
						continue
					}

					if !yield(c.delta(message.ID, provider.TextContent(block.Text)), nil) {
						return
					}

				case anthropic.ToolUseBlock:
					call := provider.ToolCall{
						ID:   block.ID,
						Name: block.Name,
					}

					if !yield(c.delta(message.ID, provider.ToolCallContent(call)), nil) {
						return
					}
				}

			case anthropic.ContentBlockDeltaEvent:
				switch delta := event.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if !yield(c.delta(message.ID, provider.TextContent(delta.Text)), nil) {
						return
					}

				case anthropic.InputJSONDelta:
					if !yield(c.delta(message.ID, provider.ToolCallContent(provider.ToolCall{Arguments: delta.PartialJSON})), nil) {
						return
					}
				}

			case anthropic.MessageStopEvent:
				completion := &provider.Completion{
					ID:    message.ID,
					Model: c.model,

					Reason: toCompletionReason(message.StopReason),

					Message: &provider.Message{
						Role: provider.MessageRoleAssistant,
					},

					Usage: toUsage(message.Usage),
				}

				if !yield(completion, nil) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			yield(nil, convertError(err))
			return
		}
	}
}

func (c *Completer) delta(id string, content provider.Content) *provider.Completion {
	return &provider.Completion{
		ID:    id,
		Model: c.model,

		Message: &provider.Message{
			Role: provider.MessageRoleAssistant,

			Content: []provider.Content{
				content,
			},
		},
	}
}

func (c *Completer) convertMessageRequest(input []provider.Message, options *provider.CompleteOptions) (*anthropic.MessageNewParams, error) {
	req := &anthropic.MessageNewParams{
		Model: anthropic.Model(c.model),

		MaxTokens: 8192,
	}

	var system []anthropic.TextBlockParam

	var tools []anthropic.ToolUnionParam
	var messages []anthropic.MessageParam

	if options.Stop != nil {
		req.StopSequences = options.Stop
	}

	if options.MaxTokens != nil {
		req.MaxTokens = int64(*options.MaxTokens)
	}

	if options.Temperature != nil {
		req.Temperature = anthropic.Float(float64(*options.Temperature))
	}

	for _, m := range input {
		if m.Role != provider.MessageRoleSystem {
			continue
		}

		for _, c := range m.Content {
			if c.Text != "" {
				system = append(system, anthropic.TextBlockParam{Text: c.Text})
			}
		}
	}

	if len(system) > 0 {
		system[len(system)-1].CacheControl = anthropic.NewCacheControlEphemeralParam()
	}

	for _, m := range input {
		switch m.Role {
		case provider.MessageRoleSystem:
			continue

		case provider.MessageRoleUser:
			var blocks []anthropic.ContentBlockParamUnion

			for _, c := range m.Content {
				if text := strings.TrimRight(c.Text, " \t\n\r"); text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(text))
				}

				if c.File != nil {
					block, err := convertFile(c.File)

					if err != nil {
						return nil, err
					}

					blocks = append(blocks, block)
				}

				if c.ToolResult != nil {
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolResult: &anthropic.ToolResultBlockParam{
							ToolUseID: c.ToolResult.ID,

							Content: []anthropic.ToolResultBlockParamContentUnion{
								{
									OfText: &anthropic.TextBlockParam{
										Text: c.ToolResult.Data,
									},
								},
							},
						},
					})
				}
			}

			// consecutive tool results are sent as one user turn
			if n := len(messages); n > 0 && messages[n-1].Role == anthropic.MessageParamRoleUser && onlyToolResults(messages[n-1].Content) && onlyToolResults(blocks) {
				messages[n-1].Content = append(messages[n-1].Content, blocks...)
				continue
			}

			messages = append(messages, anthropic.NewUserMessage(blocks...))

		case provider.MessageRoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion

			for _, c := range m.Content {
				if text := strings.TrimRight(c.Text, " \t\n\r"); text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(text))
				}

				if c.ToolCall != nil {
					var input map[string]any

					if err := json.Unmarshal([]byte(c.ToolCall.Arguments), &input); err != nil || input == nil {
						input = map[string]any{}
					}

					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    c.ToolCall.ID,
							Name:  c.ToolCall.Name,
							Input: input,
						},
					})
				}
			}

			messages = append(messages, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})
		}
	}

	for _, t := range options.Tools {
		if t.Name == "" {
			continue
		}

		var schema anthropic.ToolInputSchemaParam

		schemaData, _ := json.Marshal(t.Parameters)

		if err := json.Unmarshal(schemaData, &schema); err != nil {
			return nil, errors.New("invalid tool parameters schema")
		}

		tool := anthropic.ToolParam{
			Name: t.Name,

			InputSchema: schema,
		}

		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}

		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	if len(system) > 0 {
		req.System = system
	}

	if len(tools) > 0 {
		req.Tools = tools
	}

	req.Messages = messages

	return req, nil
}

func convertFile(file *provider.File) (anthropic.ContentBlockParamUnion, error) {
	mime := file.ContentType
	content := base64.StdEncoding.EncodeToString(file.Content)

	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return anthropic.NewImageBlock(anthropic.Base64ImageSourceParam{
			Data:      content,
			MediaType: anthropic.Base64ImageSourceMediaType(mime),
		}), nil

	case "application/pdf":
		return anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
			Data: content,
		}), nil
	}

	return anthropic.ContentBlockParamUnion{}, fmt.Errorf("unsupported content type %q", mime)
}

func onlyToolResults(blocks []anthropic.ContentBlockParamUnion) bool {
	if len(blocks) == 0 {
		return false
	}

	for _, b := range blocks {
		if b.OfToolResult == nil {
			return false
		}
	}

	return true
}

func toCompletionReason(reason anthropic.StopReason) provider.CompletionReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return provider.CompletionReasonStop

	case anthropic.StopReasonMaxTokens:
		return provider.CompletionReasonLength

	case anthropic.StopReasonToolUse:
		return provider.CompletionReasonTool

	case anthropic.StopReasonRefusal:
		return provider.CompletionReasonFilter
	}

	return ""
}

func toUsage(usage anthropic.Usage) *provider.Usage {
	if usage.InputTokens == 0 && usage.OutputTokens == 0 {
		return nil
	}

	return &provider.Usage{
		InputTokens:  int(usage.InputTokens),
		OutputTokens: int(usage.OutputTokens),
	}
}

func convertError(err error) error {
	var apierr *anthropic.Error

	if errors.As(err, &apierr) {
		return fmt.Errorf("anthropic: status %d: %w", apierr.StatusCode, err)
	}

	return err
}
