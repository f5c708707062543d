package stream

import (
	"errors"
	"io"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

const sample = "data: {\"type\":\"text-delta\",\"delta\":\"Hel\"}\n\n" +
	"data: {\"type\":\"tool-call\",\"toolCallId\":\"1\",\"toolName\":\"searchCourses\",\"input\":{\"query\":\"threads\"}}\n\n" +
	"data: {broken\n\n" +
	"data: {\"type\":\"tool-result\",\"toolCallId\":\"1\",\"toolName\":\"searchCourses\",\"output\":{\"matches\":[]}}\n\n" +
	": keep-alive\n\n" +
	"data: {\"type\":\"text-delta\",\"delta\":\"lo ✓\"}\n\n" +
	"data: {\"type\":\"done\"}\n\n" +
	"data: [DONE]\n\n"

// chunkReader returns the input in chunks of random size.
type chunkReader struct {
	data []byte
	rnd  *rand.Rand
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}

	n := min(1+r.rnd.Intn(7), len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]

	return n, nil
}

func decodeAll(t *testing.T, r io.Reader) ([]Event, *Decoder) {
	t.Helper()

	d := NewDecoder(r)

	var events []Event

	for e, err := range d.Events() {
		require.NoError(t, err)
		events = append(events, *e)
	}

	return events, d
}

func TestDecoder(t *testing.T) {
	events, d := decodeAll(t, strings.NewReader(sample))

	require.Len(t, events, 5)
	require.Equal(t, EventTextDelta, events[0].Type)
	require.Equal(t, EventToolCall, events[1].Type)
	require.JSONEq(t, `{"query":"threads"}`, string(events[1].Input))
	require.Equal(t, EventToolResult, events[2].Type)
	require.Equal(t, EventDone, events[4].Type)

	require.Equal(t, "Hello ✓", d.Text())
	require.Len(t, d.Skipped(), 1)
}

func TestDecoderChunkBoundaries(t *testing.T) {
	expected, _ := decodeAll(t, strings.NewReader(sample))

	oneByte, d := decodeAll(t, iotest.OneByteReader(strings.NewReader(sample)))
	require.Equal(t, expected, oneByte)
	require.Equal(t, "Hello ✓", d.Text())

	for seed := int64(0); seed < 20; seed++ {
		r := &chunkReader{
			data: []byte(sample),
			rnd:  rand.New(rand.NewSource(seed)),
		}

		chunked, d := decodeAll(t, r)
		require.Equal(t, expected, chunked)
		require.Equal(t, "Hello ✓", d.Text())
	}
}

func TestDecoderStopsAtDone(t *testing.T) {
	input := "data: {\"type\":\"text-delta\",\"delta\":\"a\"}\n\ndata: [DONE]\n\ndata: {\"type\":\"text-delta\",\"delta\":\"b\"}\n\n"

	events, d := decodeAll(t, strings.NewReader(input))
	require.Len(t, events, 1)
	require.Equal(t, "a", d.Text())
}

func TestDecoderFinalLineWithoutNewline(t *testing.T) {
	input := "data: {\"type\":\"text-delta\",\"delta\":\"a\"}\n\ndata: {\"type\":\"text-delta\",\"delta\":\"b\"}"

	events, d := decodeAll(t, strings.NewReader(input))
	require.Len(t, events, 2)
	require.Equal(t, "ab", d.Text())
}

func TestDecoderReadError(t *testing.T) {
	failure := errors.New("connection reset")
	d := NewDecoder(io.MultiReader(strings.NewReader("data: {\"type\":\"done\"}\n"), iotest.ErrReader(failure)))

	e, err := d.Next()
	require.NoError(t, err)
	require.Equal(t, EventDone, e.Type)

	_, err = d.Next()
	require.ErrorIs(t, err, failure)
}

func TestWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	require.NoError(t, w.Write(TextDelta("Hi <there>")))
	require.NoError(t, w.Write(ToolCall("1", "searchCourses", `{"query":"go"}`)))
	require.NoError(t, w.Write(ToolResult("1", "searchCourses", "", errors.New("boom"))))
	require.NoError(t, w.Write(Done()))
	require.NoError(t, w.Close())

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.True(t, rec.Flushed)

	expected := "data: {\"type\":\"text-delta\",\"delta\":\"Hi <there>\"}\n\n" +
		"data: {\"type\":\"tool-call\",\"toolCallId\":\"1\",\"toolName\":\"searchCourses\",\"input\":{\"query\":\"go\"}}\n\n" +
		"data: {\"type\":\"tool-result\",\"toolCallId\":\"1\",\"toolName\":\"searchCourses\",\"error\":\"boom\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n" +
		"data: [DONE]\n\n"

	require.Equal(t, expected, rec.Body.String())
}

func TestWriterDecoderRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)

	sent := []Event{
		TextDelta("The "),
		ToolCall("c1", "searchCourses", "not json"),
		ToolResult("c1", "searchCourses", `{"matches":[]}`, nil),
		TextDelta("answer"),
		Error("loop budget exceeded"),
	}

	for _, e := range sent {
		require.NoError(t, w.Write(e))
	}

	require.NoError(t, w.Close())

	events, d := decodeAll(t, iotest.HalfReader(rec.Body))
	require.Len(t, events, len(sent))
	require.Equal(t, "The answer", d.Text())
	require.JSONEq(t, `"not json"`, string(events[1].Input))
	require.Equal(t, "loop budget exceeded", events[4].Message)
}
