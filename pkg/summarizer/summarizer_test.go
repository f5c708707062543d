package summarizer

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aiacademy/tutor/pkg/audio/mux"
	"github.com/aiacademy/tutor/pkg/catalog"
	"github.com/aiacademy/tutor/pkg/catalog/memory"
	"github.com/aiacademy/tutor/pkg/provider"
	"github.com/aiacademy/tutor/pkg/text"

	"github.com/stretchr/testify/require"
)

type recordingCompleter struct {
	messages []provider.Message

	answer string
	err    error
}

func (c *recordingCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		c.messages = messages

		if c.err != nil {
			yield(nil, c.err)
			return
		}

		yield(&provider.Completion{
			Message: &provider.Message{
				Role:    provider.MessageRoleAssistant,
				Content: []provider.Content{provider.TextContent(c.answer)},
			},
		}, nil)
	}
}

func (c *recordingCompleter) user() provider.Message {
	return c.messages[len(c.messages)-1]
}

func (c *recordingCompleter) files() []*provider.File {
	var files []*provider.File

	for _, content := range c.user().Content {
		if content.File != nil {
			files = append(files, content.File)
		}
	}

	return files
}

type fixture struct {
	requests atomic.Int32
	status   int

	server *httptest.Server
}

func newFixture(t *testing.T, status int) *fixture {
	f := &fixture{
		status: status,
	}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)

		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}

		w.Write([]byte("audio-bytes"))
	}))

	t.Cleanup(f.server.Close)

	return f
}

func newPipeline(t *testing.T, f *fixture, completer provider.Completer) *Pipeline {
	t.Helper()

	lessons, err := memory.New(&catalog.File{
		Courses: []catalog.Course{
			{
				Slug: "concurrent-systems",

				Lessons: []catalog.Lesson{
					{
						ID:          "with-video",
						Slug:        "threads",
						Title:       "Threads",
						Description: "Intro to threads",
						Content:     []text.Block{text.Paragraph("Threads share memory.")},
						PlaybackID:  "abc",
					},
					{
						ID:   "no-video",
						Slug: "locks",
					},
				},
			},
		},
	})

	require.NoError(t, err)

	fetcher, err := mux.New(mux.WithURL(f.server.URL))
	require.NoError(t, err)

	p, err := New(completer, lessons, WithAudio(fetcher))
	require.NoError(t, err)

	return p
}

func TestSummarizeWithAudio(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	completer := &recordingCompleter{answer: "# Threads\n\nSummary"}

	result := newPipeline(t, f, completer).SummarizeVideo(context.Background(), "with-video")

	require.Equal(t, Result{Success: true, Summary: "# Threads\n\nSummary"}, result)
	require.Equal(t, int32(1), f.requests.Load())

	require.Equal(t, provider.MessageRoleSystem, completer.messages[0].Role)
	require.Equal(t, DefaultSystemPrompt, completer.messages[0].Text())

	files := completer.files()
	require.Len(t, files, 1)
	require.Equal(t, []byte("audio-bytes"), files[0].Content)
	require.Equal(t, "audio/mp4", files[0].ContentType)

	prompt := completer.user().Text()
	require.Contains(t, prompt, "Lesson Title: Threads")
	require.Contains(t, prompt, "Description: Intro to threads")
	require.Contains(t, prompt, "Rich Text Content: Threads share memory.")
	require.NotContains(t, prompt, FallbackInstruction)
}

func TestSummarizeAudioFailure(t *testing.T) {
	f := newFixture(t, http.StatusNotFound)
	completer := &recordingCompleter{answer: "summary"}

	result := newPipeline(t, f, completer).SummarizeVideo(context.Background(), "with-video")

	require.True(t, result.Success)
	require.Equal(t, "summary", result.Summary)
	require.Equal(t, int32(1), f.requests.Load())

	require.Empty(t, completer.files())
	require.Contains(t, completer.user().Text(), FallbackInstruction)

	require.Equal(t, TextSystemPrompt, completer.messages[0].Text())

	for _, m := range completer.messages {
		require.NotContains(t, m.Text(), "actual video audio")
		require.NotContains(t, m.Text(), "attached video audio")
	}
}

func TestSummarizeCustomSystemPrompt(t *testing.T) {
	f := newFixture(t, http.StatusNotFound)
	completer := &recordingCompleter{answer: "summary"}

	lessons, err := memory.New(&catalog.File{
		Courses: []catalog.Course{{Slug: "c", Lessons: []catalog.Lesson{{ID: "l", Slug: "l"}}}},
	})

	require.NoError(t, err)

	fetcher, err := mux.New(mux.WithURL(f.server.URL))
	require.NoError(t, err)

	p, err := New(completer, lessons, WithAudio(fetcher), WithSystemPrompt("be brief"))
	require.NoError(t, err)

	require.True(t, p.SummarizeVideo(context.Background(), "l").Success)
	require.Equal(t, "be brief", completer.messages[0].Text())
}

func TestSummarizeWithoutVideo(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	completer := &recordingCompleter{answer: "summary"}

	result := newPipeline(t, f, completer).SummarizeVideo(context.Background(), "no-video")

	require.True(t, result.Success)
	require.Equal(t, int32(0), f.requests.Load())

	prompt := completer.user().Text()
	require.Contains(t, prompt, "Lesson Title: Untitled Lesson")
	require.Contains(t, prompt, FallbackInstruction)
}

func TestSummarizeMissingLesson(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	completer := &recordingCompleter{answer: "summary"}

	result := newPipeline(t, f, completer).SummarizeVideo(context.Background(), "missing")

	require.False(t, result.Success)
	require.Equal(t, "lesson not found", result.Error)
	require.Empty(t, result.Summary)

	require.Equal(t, int32(0), f.requests.Load())
	require.Nil(t, completer.messages)
}

func TestSummarizeModelFailure(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	completer := &recordingCompleter{err: errors.New("quota exceeded")}

	result := newPipeline(t, f, completer).SummarizeVideo(context.Background(), "with-video")

	require.False(t, result.Success)
	require.Contains(t, result.Error, "quota exceeded")
}

type panickingCompleter struct{}

func (panickingCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		panic("upstream sdk bug")
	}
}

func TestSummarizeCompleterPanic(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	var result Result

	require.NotPanics(t, func() {
		result = newPipeline(t, f, panickingCompleter{}).SummarizeVideo(context.Background(), "with-video")
	})

	require.False(t, result.Success)
	require.Contains(t, result.Error, "upstream sdk bug")
	require.Empty(t, result.Summary)
}

type nilCompleter struct{}

func (nilCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		if !yield(nil, nil) {
			return
		}

		yield(&provider.Completion{
			Message: &provider.Message{Content: []provider.Content{provider.TextContent("summary")}},
		}, nil)
	}
}

func TestSummarizeSkipsNilCompletions(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	result := newPipeline(t, f, nilCompleter{}).SummarizeVideo(context.Background(), "with-video")
	require.Equal(t, Result{Success: true, Summary: "summary"}, result)
}

func TestSummarizeEmptyAnswer(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	completer := &recordingCompleter{answer: "  "}

	result := newPipeline(t, f, completer).SummarizeVideo(context.Background(), "with-video")

	require.False(t, result.Success)
	require.Equal(t, ErrEmptySummary.Error(), result.Error)
}
