package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/aiacademy/tutor/pkg/message"
	"github.com/aiacademy/tutor/pkg/stream"
)

type ChatService struct {
	Options []RequestOption
}

func NewChatService(opts ...RequestOption) ChatService {
	return ChatService{
		Options: opts,
	}
}

type Message = message.Message
type Event = stream.Event

func UserMessage(text string) Message {
	m, _ := message.New("", message.RoleUser, message.TextPart(text))
	return *m
}

func AssistantMessage(text string) Message {
	m, _ := message.New("", message.RoleAssistant, message.TextPart(text))
	return *m
}

type ChatRequest struct {
	Messages []Message `json:"messages"`

	Lesson string `json:"lesson,omitempty"`
}

// New sends a chat request and returns the complete answer.
func (r *ChatService) New(ctx context.Context, input ChatRequest, opts ...RequestOption) (string, error) {
	var answer strings.Builder

	for e, err := range r.NewStream(ctx, input, opts...) {
		if err != nil {
			return "", err
		}

		switch e.Type {
		case stream.EventTextDelta:
			answer.WriteString(e.Delta)

		case stream.EventError:
			return "", errors.New(e.Message)
		}
	}

	return answer.String(), nil
}

// NewStream yields events as soon as each frame arrives.
func (r *ChatService) NewStream(ctx context.Context, input ChatRequest, opts ...RequestOption) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		c := newRequestConfig(append(r.Options, opts...)...)

		body, err := json.Marshal(input)

		if err != nil {
			yield(nil, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL+"/api/chat", bytes.NewReader(body))

		if err != nil {
			yield(nil, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		c.authorize(req)

		resp, err := c.Client.Do(req)

		if err != nil {
			yield(nil, err)
			return
		}

		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield(nil, convertError(resp))
			return
		}

		for e, err := range stream.NewDecoder(resp.Body).Events() {
			if !yield(e, err) {
				return
			}
		}
	}
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if text := strings.TrimSpace(string(data)); text != "" {
		return fmt.Errorf("%s: %s", resp.Status, text)
	}

	return errors.New(resp.Status)
}
