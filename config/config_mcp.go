package config

import (
	"context"

	"github.com/aiacademy/tutor/pkg/mcp"
	"github.com/aiacademy/tutor/pkg/otel"
)

type mcpConfig struct {
	Name string `yaml:"name"`
}

// registerMCP publishes the tutor's tools when an mcp section is present.
func (c *Config) registerMCP(ctx context.Context, f *configFile) error {
	if f.MCP == nil {
		return nil
	}

	name := f.MCP.Name

	if name == "" {
		name = "tutor"
	}

	s, err := mcp.New(ctx, name, otel.NewTool(name, c.Tools))

	if err != nil {
		return err
	}

	c.MCP = s

	return nil
}
