// Package message holds the chat wire model exchanged with clients: ordered,
// typed parts per turn. It converts into the provider message model used by
// completers.
package message

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aiacademy/tutor/pkg/provider"

	"github.com/google/uuid"
)

var (
	ErrNoParts          = errors.New("message has no parts")
	ErrInvalidRole      = errors.New("invalid message role")
	ErrMissingMediaType = errors.New("file part has no media type")
	ErrInvalidData      = errors.New("file part data is not valid base64")
	ErrInvalidPartType  = errors.New("invalid part type")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
)

type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`

	Parts []Part `json:"parts"`
}

type Part struct {
	Type PartType `json:"type"`

	Text string `json:"text,omitempty"`

	Data      string `json:"data,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

func TextPart(text string) Part {
	return Part{
		Type: PartTypeText,
		Text: text,
	}
}

func FilePart(data []byte, mediaType string) Part {
	return Part{
		Type: PartTypeFile,

		Data:      base64.StdEncoding.EncodeToString(data),
		MediaType: mediaType,
	}
}

// New builds a validated message. An empty id is replaced with a random one.
func New(id string, role Role, parts ...Part) (*Message, error) {
	if id == "" {
		id = uuid.NewString()
	}

	m := &Message{
		ID:   id,
		Role: role,

		Parts: parts,
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}

	if len(m.Parts) == 0 {
		return ErrNoParts
	}

	for i, p := range m.Parts {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
	}

	return nil
}

func (p Part) Validate() error {
	switch p.Type {
	case PartTypeText:
		return nil

	case PartTypeFile:
		if strings.TrimSpace(p.MediaType) == "" {
			return ErrMissingMediaType
		}

		if _, err := base64.StdEncoding.DecodeString(p.Data); err != nil {
			return ErrInvalidData
		}

		return nil

	default:
		return fmt.Errorf("%w: %q", ErrInvalidPartType, p.Type)
	}
}

// Text concatenates the text parts in order.
func (m *Message) Text() string {
	var b strings.Builder

	for _, p := range m.Parts {
		if p.Type == PartTypeText {
			b.WriteString(p.Text)
		}
	}

	return b.String()
}

// ToProvider converts a validated message into the provider model.
func (m *Message) ToProvider() (provider.Message, error) {
	result := provider.Message{}

	switch m.Role {
	case RoleUser:
		result.Role = provider.MessageRoleUser
	case RoleAssistant:
		result.Role = provider.MessageRoleAssistant
	case RoleSystem:
		result.Role = provider.MessageRoleSystem
	default:
		return result, fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}

	for _, p := range m.Parts {
		switch p.Type {
		case PartTypeText:
			if p.Text == "" {
				continue
			}

			result.Content = append(result.Content, provider.TextContent(p.Text))

		case PartTypeFile:
			data, err := base64.StdEncoding.DecodeString(p.Data)

			if err != nil {
				return result, ErrInvalidData
			}

			result.Content = append(result.Content, provider.FileContent(&provider.File{
				Content:     data,
				ContentType: p.MediaType,
			}))
		}
	}

	return result, nil
}

// ToProviderMessages validates and converts a whole conversation.
func ToProviderMessages(messages []Message) ([]provider.Message, error) {
	result := make([]provider.Message, 0, len(messages))

	for i := range messages {
		if err := messages[i].Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		m, err := messages[i].ToProvider()

		if err != nil {
			return nil, err
		}

		result = append(result, m)
	}

	return result, nil
}
