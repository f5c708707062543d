package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// FrameError describes a data line that could not be decoded.
type FrameError struct {
	Line string
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("invalid stream frame %q: %v", e.Line, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Decoder pulls events from a byte stream. Reads may split lines at any
// point; only complete lines are parsed and the final line is terminated by
// EOF. Frames that fail to decode are skipped.
type Decoder struct {
	r *bufio.Reader

	text strings.Builder

	skipped []*FrameError

	done bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r: bufio.NewReader(r),
	}
}

// Next returns the next event. It returns io.EOF once the input ends or the
// done marker was received.
func (d *Decoder) Next() (*Event, error) {
	for !d.done {
		line, err := d.r.ReadString('\n')

		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		if errors.Is(err, io.EOF) {
			d.done = true
		}

		event, ok := d.parse(line)

		if ok {
			return event, nil
		}
	}

	return nil, io.EOF
}

// Events iterates over all remaining events.
func (d *Decoder) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			event, err := d.Next()

			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(event, nil) {
				return
			}
		}
	}
}

// Text returns the answer accumulated from text deltas so far.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Skipped returns the frames dropped because they could not be decoded.
func (d *Decoder) Skipped() []*FrameError {
	return d.skipped
}

func (d *Decoder) parse(line string) (*Event, bool) {
	line = strings.TrimRight(line, "\r\n")

	data, ok := strings.CutPrefix(line, "data:")

	if !ok {
		return nil, false
	}

	data = strings.TrimPrefix(data, " ")

	if data == doneMarker {
		d.done = true
		return nil, false
	}

	var event Event

	if err := json.Unmarshal([]byte(data), &event); err != nil {
		d.skipped = append(d.skipped, &FrameError{Line: line, Err: err})
		return nil, false
	}

	if event.Type == EventTextDelta {
		d.text.WriteString(event.Delta)
	}

	return &event, true
}
