package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/aiacademy/tutor/pkg/provider"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

var _ provider.Completer = (*Completer)(nil)

type Completer struct {
	*Config
}

func NewCompleter(model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.model == "" {
		cfg.model = DefaultModel
	}

	return &Completer{
		Config: cfg,
	}, nil
}

func (c *Completer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		if options == nil {
			options = new(provider.CompleteOptions)
		}

		client, err := c.newClient(ctx)

		if err != nil {
			yield(nil, err)
			return
		}

		contents, err := convertContents(messages)

		if err != nil {
			yield(nil, err)
			return
		}

		config := convertConfig(messages, options)

		id := uuid.NewString()

		for resp, err := range client.Models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				yield(nil, convertError(err))
				return
			}

			delta := &provider.Completion{
				ID:    id,
				Model: c.model,

				Message: &provider.Message{
					Role: provider.MessageRoleAssistant,
				},
			}

			if len(resp.Candidates) > 0 {
				candidate := resp.Candidates[0]

				delta.Reason = toCompletionReason(candidate)
				delta.Message.Content = toContent(candidate.Content)

				// usage metadata is cumulative; report it once with the finish reason
				if candidate.FinishReason != "" {
					delta.Usage = toUsage(resp.UsageMetadata)
				}
			}

			if !yield(delta, nil) {
				return
			}
		}
	}
}

func convertConfig(messages []provider.Message, options *provider.CompleteOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: convertSystem(messages),

		Temperature:   options.Temperature,
		StopSequences: options.Stop,
	}

	if options.MaxTokens != nil {
		config.MaxOutputTokens = int32(*options.MaxTokens)
	}

	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
	}

	return config
}

func convertSystem(messages []provider.Message) *genai.Content {
	var parts []*genai.Part

	for _, m := range messages {
		if m.Role != provider.MessageRoleSystem {
			continue
		}

		for _, c := range m.Content {
			if c.Text != "" {
				parts = append(parts, genai.NewPartFromText(c.Text))
			}
		}
	}

	if len(parts) == 0 {
		return nil
	}

	return genai.NewContentFromParts(parts, genai.RoleUser)
}

func convertContents(messages []provider.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	for _, m := range messages {
		if m.Role == provider.MessageRoleSystem {
			continue
		}

		content, err := convertContent(m)

		if err != nil {
			return nil, err
		}

		if len(content.Parts) == 0 {
			continue
		}

		// function responses of one round belong to a single turn
		if n := len(result); n > 0 && isFunctionResponses(result[n-1]) && isFunctionResponses(content) {
			result[n-1].Parts = append(result[n-1].Parts, content.Parts...)
			continue
		}

		result = append(result, content)
	}

	return result, nil
}

func isFunctionResponses(content *genai.Content) bool {
	if content.Role != genai.RoleUser || len(content.Parts) == 0 {
		return false
	}

	for _, p := range content.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}

	return true
}

func convertContent(message provider.Message) (*genai.Content, error) {
	content := &genai.Content{}

	switch message.Role {
	case provider.MessageRoleUser:
		content.Role = genai.RoleUser

		for _, c := range message.Content {
			if c.Text != "" {
				content.Parts = append(content.Parts, genai.NewPartFromText(c.Text))
			}

			if c.File != nil {
				part, err := convertFile(c.File)

				if err != nil {
					return nil, err
				}

				content.Parts = append(content.Parts, part)
			}

			if c.ToolResult != nil {
				content.Parts = append(content.Parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:   c.ToolResult.ID,
						Name: c.ToolResult.Name,

						Response: convertToolResult(c.ToolResult.Data),
					},
				})
			}
		}

	case provider.MessageRoleAssistant:
		content.Role = genai.RoleModel

		for _, c := range message.Content {
			if c.Text != "" {
				content.Parts = append(content.Parts, genai.NewPartFromText(c.Text))
			}

			if c.ToolCall != nil {
				var args map[string]any
				json.Unmarshal([]byte(c.ToolCall.Arguments), &args)

				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   c.ToolCall.ID,
						Name: c.ToolCall.Name,

						Args: args,
					},
				})
			}
		}

	default:
		return nil, fmt.Errorf("unsupported message role %q", message.Role)
	}

	return content, nil
}

func convertFile(file *provider.File) (*genai.Part, error) {
	contentType := strings.ToLower(file.ContentType)

	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	switch {
	case strings.HasPrefix(contentType, "audio/"),
		strings.HasPrefix(contentType, "image/"),
		strings.HasPrefix(contentType, "video/"),
		contentType == "application/pdf",
		contentType == "text/plain":

		return &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: contentType,
				Data:     file.Content,
			},
		}, nil
	}

	return nil, errors.New("unsupported content type")
}

func convertToolResult(data string) map[string]any {
	var value any

	if err := json.Unmarshal([]byte(data), &value); err != nil {
		return map[string]any{"output": data}
	}

	if val, ok := value.(map[string]any); ok {
		return val
	}

	return map[string]any{"output": value}
}

func convertTools(tools []provider.Tool) []*genai.Tool {
	var functions []*genai.FunctionDeclaration

	for _, t := range tools {
		function := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}

		if len(t.Parameters) > 0 {
			function.ParametersJsonSchema = t.Parameters
		}

		functions = append(functions, function)
	}

	if len(functions) == 0 {
		return nil
	}

	return []*genai.Tool{
		{
			FunctionDeclarations: functions,
		},
	}
}

func toContent(content *genai.Content) []provider.Content {
	if content == nil {
		return nil
	}

	var parts []provider.Content

	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}

		if p.Text != "" {
			parts = append(parts, provider.TextContent(p.Text))
		}

		if p.FunctionCall != nil {
			data, _ := json.Marshal(p.FunctionCall.Args)

			id := p.FunctionCall.ID

			if id == "" {
				id = uuid.NewString()
			}

			parts = append(parts, provider.ToolCallContent(provider.ToolCall{
				ID: id,

				Name:      p.FunctionCall.Name,
				Arguments: string(data),
			}))
		}
	}

	return parts
}

func toCompletionReason(candidate *genai.Candidate) provider.CompletionReason {
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			if p != nil && p.FunctionCall != nil {
				return provider.CompletionReasonTool
			}
		}
	}

	switch candidate.FinishReason {
	case genai.FinishReasonStop:
		return provider.CompletionReasonStop

	case genai.FinishReasonMaxTokens:
		return provider.CompletionReasonLength

	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return provider.CompletionReasonFilter
	}

	return ""
}

func toUsage(metadata *genai.GenerateContentResponseUsageMetadata) *provider.Usage {
	if metadata == nil {
		return nil
	}

	return &provider.Usage{
		InputTokens:  int(metadata.PromptTokenCount),
		OutputTokens: int(metadata.CandidatesTokenCount),
	}
}

func convertError(err error) error {
	var apierr genai.APIError

	if errors.As(err, &apierr) {
		return fmt.Errorf("gemini: %s (status %d)", apierr.Message, apierr.Code)
	}

	var apiptr *genai.APIError

	if errors.As(err, &apiptr) && apiptr != nil {
		return fmt.Errorf("gemini: %s (status %d)", apiptr.Message, apiptr.Code)
	}

	return err
}
