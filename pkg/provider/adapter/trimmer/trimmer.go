package trimmer

import (
	"context"
	"iter"

	"github.com/aiacademy/tutor/pkg/provider"
)

var _ provider.Completer = (*Trimmer)(nil)

const clearedResult = `{"cleared":true}`

// Trimmer keeps long conversations within a token budget. A turn starts at a
// student message and holds every answer and tool round that follows, so a
// tool call is never separated from its result.
type Trimmer struct {
	*Config
	completer provider.Completer
}

type turn struct {
	messages []provider.Message
}

func New(completer provider.Completer, opts ...Option) *Trimmer {
	cfg := &Config{
		tokenThreshold: 32000,
		keepTurns:      2,
		charsPerToken:  4,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Trimmer{
		Config:    cfg,
		completer: completer,
	}
}

func (t *Trimmer) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return t.completer.Complete(ctx, t.Trim(messages), options)
}

// Trim first clears the tool results of older turns, then drops the oldest
// turns until the estimate fits. System messages and the latest turn are
// always kept.
func (t *Trimmer) Trim(messages []provider.Message) []provider.Message {
	if t.estimateTokens(messages) <= t.tokenThreshold {
		return messages
	}

	system, turns := t.groupTurns(messages)

	for i := 0; i < len(turns)-t.keepTurns; i++ {
		turns[i] = clearToolResults(turns[i])
	}

	result := flatten(system, turns)

	for len(turns) > 1 && t.estimateTokens(result) > t.tokenThreshold {
		turns = turns[1:]
		result = flatten(system, turns)
	}

	return result
}

func (t *Trimmer) groupTurns(messages []provider.Message) ([]provider.Message, []turn) {
	var system []provider.Message
	var turns []turn

	for _, m := range messages {
		if m.Role == provider.MessageRoleSystem {
			system = append(system, m)
			continue
		}

		_, _, isResult := m.ToolResult()

		if len(turns) == 0 || (m.Role == provider.MessageRoleUser && !isResult) {
			turns = append(turns, turn{})
		}

		last := &turns[len(turns)-1]
		last.messages = append(last.messages, m)
	}

	return system, turns
}

func flatten(system []provider.Message, turns []turn) []provider.Message {
	result := append([]provider.Message(nil), system...)

	for _, trn := range turns {
		result = append(result, trn.messages...)
	}

	return result
}

func clearToolResults(trn turn) turn {
	messages := make([]provider.Message, len(trn.messages))

	for i, m := range trn.messages {
		content := make([]provider.Content, len(m.Content))

		for j, c := range m.Content {
			if c.ToolResult != nil {
				c = provider.ToolResultContent(provider.ToolResult{
					ID:   c.ToolResult.ID,
					Name: c.ToolResult.Name,

					Data: clearedResult,
				})
			}

			content[j] = c
		}

		messages[i] = provider.Message{
			Role:    m.Role,
			Content: content,
		}
	}

	return turn{messages: messages}
}

func (t *Trimmer) estimateTokens(messages []provider.Message) int {
	total := 0

	for _, m := range messages {
		total += 4

		for _, c := range m.Content {
			total += t.tokenCount(c.Text)

			if c.File != nil {
				total += len(c.File.Content) / t.charsPerToken
			}

			if c.ToolCall != nil {
				total += t.tokenCount(c.ToolCall.Name+c.ToolCall.Arguments) + 4
			}

			if c.ToolResult != nil {
				total += t.tokenCount(c.ToolResult.Data) + 4
			}
		}
	}

	return total
}

func (t *Trimmer) tokenCount(s string) int {
	if s == "" {
		return 0
	}

	return (len(s) + t.charsPerToken - 1) / t.charsPerToken
}
