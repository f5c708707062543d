package lesson

import (
	"context"
	"errors"

	"github.com/aiacademy/tutor/pkg/text"
)

var ErrNotFound = errors.New("lesson not found")

type Provider interface {
	Lesson(ctx context.Context, id string) (*Lesson, error)
}

type Lesson struct {
	ID   string
	Slug string

	Title       string
	Description string

	Content []text.Block

	Video *Video
}

type Video struct {
	PlaybackID string
}

// PlaybackID returns the audio source id of the lesson video, if any.
func (l *Lesson) PlaybackID() string {
	if l.Video == nil {
		return ""
	}

	return l.Video.PlaybackID
}

func (l *Lesson) PlainText() string {
	return text.PlainText(l.Content)
}
