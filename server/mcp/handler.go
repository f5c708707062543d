package mcp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler mounts the MCP streamable HTTP endpoint.
type Handler struct {
	server http.Handler
}

func New(server http.Handler) (*Handler, error) {
	if server == nil {
		return nil, errors.New("mcp requires a server")
	}

	return &Handler{
		server: server,
	}, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Handle("/mcp", h.server)
}
