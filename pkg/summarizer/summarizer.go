// Package summarizer produces study summaries of lessons from their text
// content and, when it can be downloaded, the audio track of the lesson
// video.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aiacademy/tutor/pkg/audio"
	"github.com/aiacademy/tutor/pkg/lesson"
	"github.com/aiacademy/tutor/pkg/provider"
)

const (
	DefaultSystemPrompt = "You are an expert educational assistant at Ai Academy. Your goal is to provide a concise, structured, and helpful summary of a lesson based on its context and the actual video audio. Use Markdown for formatting."

	// TextSystemPrompt is used when no audio track is attached.
	TextSystemPrompt = "You are an expert educational assistant at Ai Academy. Your goal is to provide a concise, structured, and helpful summary of a lesson based on its written content. Use Markdown for formatting."

	FallbackInstruction = "No audio track available. Please use the content above."

	untitledLesson = "Untitled Lesson"
)

var ErrEmptySummary = errors.New("model returned an empty summary")

// Result is the outcome reported to callers. Exactly one of Summary and
// Error is set.
type Result struct {
	Success bool `json:"success"`

	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Pipeline struct {
	completer provider.Completer

	lessons lesson.Provider
	audio   audio.Fetcher

	systemPrompt string

	maxTokens   *int
	temperature *float32
}

func New(completer provider.Completer, lessons lesson.Provider, options ...Option) (*Pipeline, error) {
	if completer == nil {
		return nil, errors.New("completer is required")
	}

	if lessons == nil {
		return nil, errors.New("lesson provider is required")
	}

	p := &Pipeline{
		completer: completer,
		lessons:   lessons,
	}

	for _, option := range options {
		option(p)
	}

	return p, nil
}

// SummarizeVideo summarizes a lesson. Failures, including panics of the
// completer, are reported in the result rather than returned.
func (p *Pipeline) SummarizeVideo(ctx context.Context, lessonID string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "summarizer.panic", "lesson", lessonID, "panic", r)

			result = Result{
				Success: false,
				Error:   fmt.Sprintf("summarize lesson %s: %v", lessonID, r),
			}
		}
	}()

	summary, err := p.Summarize(ctx, lessonID)

	if err != nil {
		slog.ErrorContext(ctx, "summarizer.failed", "lesson", lessonID, "error", err)

		return Result{
			Success: false,
			Error:   err.Error(),
		}
	}

	return Result{
		Success: true,
		Summary: summary,
	}
}

func (p *Pipeline) Summarize(ctx context.Context, lessonID string) (string, error) {
	l, err := p.lessons.Lesson(ctx, lessonID)

	if err != nil {
		return "", err
	}

	track := p.fetchAudio(ctx, l)

	message := provider.Message{
		Role: provider.MessageRoleUser,

		Content: []provider.Content{
			provider.TextContent(Prompt(l, track != nil)),
		},
	}

	if track != nil {
		message.Content = append(message.Content, provider.FileContent(track))
	}

	messages := []provider.Message{
		provider.SystemMessage(p.system(track != nil)),
		message,
	}

	options := &provider.CompleteOptions{
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	var acc provider.CompletionAccumulator

	for completion, err := range p.completer.Complete(ctx, messages, options) {
		if err != nil {
			return "", fmt.Errorf("summarize lesson %s: %w", lessonID, err)
		}

		if completion == nil {
			continue
		}

		acc.Add(*completion)
	}

	summary := strings.TrimSpace(acc.Result().Message.Text())

	if summary == "" {
		return "", ErrEmptySummary
	}

	return summary, nil
}

func (p *Pipeline) system(hasAudio bool) string {
	if p.systemPrompt != "" {
		return p.systemPrompt
	}

	if hasAudio {
		return DefaultSystemPrompt
	}

	return TextSystemPrompt
}

func (p *Pipeline) fetchAudio(ctx context.Context, l *lesson.Lesson) *provider.File {
	id := l.PlaybackID()

	if id == "" || p.audio == nil {
		return nil
	}

	track, err := p.audio.Fetch(ctx, id)

	if err != nil {
		slog.WarnContext(ctx, "summarizer.audio.unavailable", "lesson", l.ID, "playback", id, "error", err)
		return nil
	}

	return track
}

// Prompt renders the instruction text for a lesson. Without audio the
// fallback instruction is appended.
func Prompt(l *lesson.Lesson, hasAudio bool) string {
	title := l.Title

	if title == "" {
		title = untitledLesson
	}

	var sb strings.Builder

	sb.WriteString("Summarize the following lesson for a student.")

	if hasAudio {
		sb.WriteString(" Priority should be given to the attached video audio.")
	}

	sb.WriteString("\n\n")

	sb.WriteString("Lesson Title: " + title + "\n")
	sb.WriteString("Description: " + l.Description + "\n")
	sb.WriteString("Rich Text Content: " + l.PlainText() + "\n\n")

	sb.WriteString("Ensure the summary is easy to read, structured with headings, and focused on learning outcomes.")

	if !hasAudio {
		sb.WriteString("\n\n" + FallbackInstruction)
	}

	return sb.String()
}
