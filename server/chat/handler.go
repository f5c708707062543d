package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aiacademy/tutor/pkg/message"
	"github.com/aiacademy/tutor/pkg/provider"
	"github.com/aiacademy/tutor/pkg/stream"

	"github.com/go-chi/chi/v5"
)

const maxRequestBytes = 8 << 20

var ErrNoMessages = errors.New("no messages")

type Agent interface {
	Run(ctx context.Context, history []provider.Message) iter.Seq[stream.Event]
}

type Handler struct {
	agent Agent
}

func New(agent Agent) (*Handler, error) {
	if agent == nil {
		return nil, errors.New("chat requires an agent")
	}

	return &Handler{
		agent: agent,
	}, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

type Request struct {
	Messages []message.Message `json:"messages"`

	// Lesson is the title of the lesson the student is currently viewing.
	Lesson string `json:"lesson,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req Request

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	history, err := History(req)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sw := stream.NewWriter(w)

	for e := range h.agent.Run(r.Context(), history) {
		if err := sw.Write(e); err != nil {
			slog.DebugContext(r.Context(), "chat.stream.closed", "error", err)
			return
		}
	}

	sw.Close()
}

// History converts the request into the conversation handed to the agent.
// Client supplied system messages are dropped; the lesson title, when set,
// is appended to the last user message.
func History(req Request) ([]provider.Message, error) {
	var messages []message.Message

	for _, m := range req.Messages {
		if m.Role == message.RoleSystem {
			continue
		}

		messages = append(messages, m)
	}

	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	history, err := message.ToProviderMessages(messages)

	if err != nil {
		return nil, err
	}

	if lesson := strings.TrimSpace(req.Lesson); lesson != "" {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role != provider.MessageRoleUser {
				continue
			}

			history[i].Content = append(history[i].Content, provider.TextContent(fmt.Sprintf("(Current lesson: %s)", lesson)))
			break
		}
	}

	return history, nil
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Write([]byte(text))
}
