package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const doneMarker = "[DONE]"

// Writer encodes events onto an HTTP response, flushing after every frame.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &Writer{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (w *Writer) Write(e Event) error {
	var data bytes.Buffer

	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(e); err != nil {
		return err
	}

	return w.writeData(strings.TrimSpace(data.String()))
}

// Close terminates the stream with the done marker.
func (w *Writer) Close() error {
	return w.writeData(doneMarker)
}

func (w *Writer) writeData(data string) error {
	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", data); err != nil {
		return err
	}

	if err := w.rc.Flush(); err != nil {
		return err
	}

	return nil
}
