package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aiacademy/tutor/pkg/tool"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server publishes the tutor's tools over the MCP streamable HTTP transport.
type Server struct {
	http.Handler

	server *mcp.Server
}

func New(ctx context.Context, name string, tools tool.Provider) (*Server, error) {
	impl := &mcp.Implementation{
		Name: name,
	}

	opts := &mcp.ServerOptions{
		KeepAlive: time.Second * 30,
	}

	server := mcp.NewServer(impl, opts)

	if err := addTools(ctx, server, tools); err != nil {
		return nil, err
	}

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	return &Server{
		Handler: handler,

		server: server,
	}, nil
}

func (s *Server) MCP() *mcp.Server {
	return s.server
}

func addTools(ctx context.Context, server *mcp.Server, p tool.Provider) error {
	tools, err := p.Tools(ctx)

	if err != nil {
		return err
	}

	for _, t := range tools {
		data, err := json.Marshal(t.Parameters)

		if err != nil {
			return err
		}

		schema := new(jsonschema.Schema)

		if err := schema.UnmarshalJSON(data); err != nil {
			return err
		}

		name := t.Name

		handler := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := map[string]any{}

			if data, err := json.Marshal(req.Params.Arguments); err == nil {
				json.Unmarshal(data, &args)
			}

			result, err := p.Execute(ctx, name, args)

			if err != nil {
				return &mcp.CallToolResult{
					IsError: true,

					Content: []mcp.Content{
						&mcp.TextContent{
							Text: err.Error(),
						},
					},
				}, nil
			}

			text, err := json.Marshal(result)

			if err != nil {
				return nil, err
			}

			return &mcp.CallToolResult{
				Content: []mcp.Content{
					&mcp.TextContent{
						Text: string(text),
					},
				},
			}, nil
		}

		server.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,

			InputSchema: schema,
		}, handler)
	}

	return nil
}
