package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aiacademy/tutor/pkg/summarizer"

	"github.com/go-chi/chi/v5"
)

type Summarizer interface {
	SummarizeVideo(ctx context.Context, lessonID string) summarizer.Result
}

type Handler struct {
	summarizer Summarizer
}

func New(s Summarizer) (*Handler, error) {
	if s == nil {
		return nil, errors.New("summary requires a summarizer")
	}

	return &Handler{
		summarizer: s,
	}, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/lessons/{id}/summary", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	// lesson ids may contain an escaped slash
	id, err := url.PathUnescape(chi.URLParam(r, "id"))

	if err != nil || strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing lesson id"))
		return
	}

	result := h.summarizer.SummarizeVideo(r.Context(), id)

	writeJson(w, result)
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)

	if err != nil {
		text = err.Error()
	}

	w.Write([]byte(text))
}
