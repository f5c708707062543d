// Package stream implements the incremental response protocol between the
// chat endpoint and its clients. Events are sent as server-sent events, one
// JSON object per "data:" line, and the stream ends with "data: [DONE]".
package stream

import (
	"encoding/json"
)

type EventType string

const (
	EventTextDelta  EventType = "text-delta"
	EventToolCall   EventType = "tool-call"
	EventToolResult EventType = "tool-result"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

type Event struct {
	Type EventType `json:"type"`

	Delta string `json:"delta,omitempty"`

	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`

	Input  json.RawMessage `json:"input,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`

	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func TextDelta(delta string) Event {
	return Event{
		Type:  EventTextDelta,
		Delta: delta,
	}
}

// ToolCall reports a tool invocation requested by the model. Arguments that
// are not valid JSON are sent as a JSON string.
func ToolCall(id, name, arguments string) Event {
	return Event{
		Type: EventToolCall,

		ToolCallID: id,
		ToolName:   name,

		Input: rawJSON(arguments, "{}"),
	}
}

func ToolResult(id, name, output string, err error) Event {
	e := Event{
		Type: EventToolResult,

		ToolCallID: id,
		ToolName:   name,
	}

	if err != nil {
		e.Error = err.Error()
		return e
	}

	e.Output = rawJSON(output, "null")
	return e
}

func Done() Event {
	return Event{
		Type: EventDone,
	}
}

func Error(message string) Event {
	return Event{
		Type:    EventError,
		Message: message,
	}
}

func rawJSON(value, empty string) json.RawMessage {
	if value == "" {
		return json.RawMessage(empty)
	}

	if json.Valid([]byte(value)) {
		return json.RawMessage(value)
	}

	data, _ := json.Marshal(value)
	return data
}
