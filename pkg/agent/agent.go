// Package agent runs the tutor's tool calling loop: the model is invoked
// with the conversation, requested tools are executed through the registry
// and their results fed back until the model produces a final answer or the
// iteration ceiling is reached.
package agent

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/aiacademy/tutor/pkg/provider"
	"github.com/aiacademy/tutor/pkg/stream"
	"github.com/aiacademy/tutor/pkg/tool"

	"github.com/google/uuid"
)

const DefaultMaxIterations = 5

// DefaultSystemInstruction keeps the tutor on catalog content and makes it
// say so when nothing matches.
const DefaultSystemInstruction = `You are a helpful tutor for Ai Academy.

You help students by:
- Searching courses
- Answering using lesson content only
- Recommending lessons

Always use the searchCourses tool before answering questions about courses or lessons.

If no content found:
Say you couldn't find it in our catalog.

Never make up answers.
Be friendly and educational.`

var ErrLoopBudgetExceeded = errors.New("loop budget exceeded")

// ModelError wraps a failure reported by the completer.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return "model invocation failed: " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

type Config struct {
	SystemInstruction string

	Tools *tool.Registry

	// MaxIterations caps the number of tool rounds per request. Zero uses
	// DefaultMaxIterations.
	MaxIterations int

	MaxTokens   *int
	Temperature *float32
}

// Agent binds a completer to a loop configuration. It holds no per-request
// state and may serve many requests concurrently.
type Agent struct {
	Completer provider.Completer

	Config Config
}

func (a Agent) Run(ctx context.Context, history []provider.Message) iter.Seq[stream.Event] {
	return Run(ctx, a.Completer, a.Config, history)
}

// Run streams the events of one agent turn. The sequence always ends with
// exactly one done or error event unless the consumer stops early or ctx
// is cancelled, in which case generation stops without further events.
func Run(ctx context.Context, completer provider.Completer, cfg Config, history []provider.Message) iter.Seq[stream.Event] {
	return func(yield func(stream.Event) bool) {
		t := newTurn(cfg, history)
		t.run(ctx, completer, yield)
	}
}

type State string

const (
	StateAwaitingModel  State = "awaiting_model"
	StateToolDispatch   State = "tool_dispatch"
	StateStreamingFinal State = "streaming_final"
	StateDone           State = "done"
	StateError          State = "error"
)

type turn struct {
	config Config

	history []provider.Message
	pending []provider.ToolCall

	iteration int

	state  State
	states []State
}

func newTurn(cfg Config, history []provider.Message) *turn {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	var messages []provider.Message

	if cfg.SystemInstruction != "" {
		messages = append(messages, provider.SystemMessage(cfg.SystemInstruction))
	}

	messages = append(messages, history...)

	return &turn{
		config:  cfg,
		history: messages,
	}
}

func (t *turn) transition(s State) {
	t.state = s
	t.states = append(t.states, s)
}

func (t *turn) options() *provider.CompleteOptions {
	options := &provider.CompleteOptions{
		MaxTokens:   t.config.MaxTokens,
		Temperature: t.config.Temperature,
	}

	if t.config.Tools != nil {
		options.Tools = t.config.Tools.Definitions()
	}

	return options
}

func (t *turn) fail(err error, yield func(stream.Event) bool) {
	t.transition(StateError)
	yield(stream.Error(err.Error()))
}

func (t *turn) run(ctx context.Context, completer provider.Completer, yield func(stream.Event) bool) {
	options := t.options()

	for {
		t.transition(StateAwaitingModel)

		var acc provider.CompletionAccumulator

		for completion, err := range completer.Complete(ctx, slices.Clone(t.history), options) {
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				t.fail(&ModelError{Err: err}, yield)
				return
			}

			if completion == nil {
				continue
			}

			acc.Add(*completion)

			if completion.Message == nil {
				continue
			}

			// text streams as it arrives; whether the round is final is only
			// known once the model finishes
			for _, c := range completion.Message.Content {
				if c.Text == "" {
					continue
				}

				if !yield(stream.TextDelta(c.Text)) {
					return
				}
			}
		}

		if ctx.Err() != nil {
			return
		}

		result := acc.Result()
		calls := result.Message.ToolCalls()

		if len(calls) == 0 {
			t.transition(StateStreamingFinal)
			t.transition(StateDone)
			yield(stream.Done())
			return
		}

		if t.iteration >= t.config.MaxIterations {
			t.fail(ErrLoopBudgetExceeded, yield)
			return
		}

		t.transition(StateToolDispatch)
		t.pending = assignIDs(calls)

		for _, c := range t.pending {
			if !yield(stream.ToolCall(c.ID, c.Name, c.Arguments)) {
				return
			}
		}

		results := t.dispatch(ctx)

		if ctx.Err() != nil {
			return
		}

		for _, r := range results {
			if !yield(stream.ToolResult(r.ID, r.Name, r.Data(), r.Err)) {
				return
			}
		}

		t.history = append(t.history, assistantMessage(result.Message.Text(), t.pending))

		for _, r := range results {
			t.history = append(t.history, provider.ToolMessage(r.ID, r.Name, r.Data()))
		}

		t.pending = nil
		t.iteration++
	}
}

func (t *turn) dispatch(ctx context.Context) []tool.Result {
	calls := make([]tool.Call, 0, len(t.pending))

	for _, c := range t.pending {
		calls = append(calls, tool.Call{
			ID: c.ID,

			Name:      c.Name,
			Arguments: c.Arguments,
		})
	}

	start := time.Now()

	var results []tool.Result

	if t.config.Tools != nil {
		results = t.config.Tools.InvokeAll(ctx, calls)
	} else {
		for _, c := range calls {
			results = append(results, tool.Result{
				ID:   c.ID,
				Name: c.Name,

				Err: &tool.ValidationError{Tool: c.Name, Message: "no such tool"},
			})
		}
	}

	for _, r := range results {
		if r.Err != nil {
			slog.WarnContext(ctx, "agent.tool.failed", "tool", r.Name, "id", r.ID, "iteration", t.iteration, "error", r.Err)
			continue
		}

		slog.InfoContext(ctx, "agent.tool.executed", "tool", r.Name, "id", r.ID, "iteration", t.iteration, "duration", time.Since(start))
	}

	return results
}

func assignIDs(calls []provider.ToolCall) []provider.ToolCall {
	result := slices.Clone(calls)

	for i := range result {
		if result[i].ID == "" {
			result[i].ID = uuid.NewString()
		}
	}

	return result
}

func assistantMessage(text string, calls []provider.ToolCall) provider.Message {
	m := provider.Message{
		Role: provider.MessageRoleAssistant,
	}

	if text != "" {
		m.Content = append(m.Content, provider.TextContent(text))
	}

	for _, c := range calls {
		m.Content = append(m.Content, provider.ToolCallContent(c))
	}

	return m
}
