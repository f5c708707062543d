package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/aiacademy/tutor/pkg/agent"
	"github.com/aiacademy/tutor/pkg/auth"
	"github.com/aiacademy/tutor/pkg/catalog/memory"
	"github.com/aiacademy/tutor/pkg/mcp"
	"github.com/aiacademy/tutor/pkg/provider"
	"github.com/aiacademy/tutor/pkg/summarizer"
	"github.com/aiacademy/tutor/pkg/tool"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	Authorizers []auth.Provider

	// Insecure serves the api without authentication. It is only honored
	// when no authorizers are configured.
	Insecure bool

	models    map[string]provider.Model
	completer map[string]provider.Completer

	Catalog *memory.Provider
	Tools   *tool.Registry

	Tutor      *agent.Agent
	Summarizer *summarizer.Pipeline

	MCP *mcp.Server
}

func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	return fromFile(context.Background(), file, filepath.Dir(path))
}

func fromFile(ctx context.Context, file *configFile, dir string) (*Config, error) {
	c := &Config{
		Address: ":8080",

		Insecure: file.Insecure,
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if err := c.registerAuthorizer(ctx, file); err != nil {
		return nil, err
	}

	if err := c.registerProviders(file); err != nil {
		return nil, err
	}

	if err := c.registerCatalog(file, dir); err != nil {
		return nil, err
	}

	if err := c.registerTutor(file); err != nil {
		return nil, err
	}

	if err := c.registerSummarizer(file); err != nil {
		return nil, err
	}

	if err := c.registerMCP(ctx, file); err != nil {
		return nil, err
	}

	return c, nil
}

type configFile struct {
	Address string `yaml:"address"`

	Insecure    bool               `yaml:"insecure"`
	Authorizers []authorizerConfig `yaml:"authorizers"`

	Providers []providerConfig `yaml:"providers"`

	Catalog catalogConfig `yaml:"catalog"`

	Tutor      tutorConfig      `yaml:"tutor"`
	Summarizer summarizerConfig `yaml:"summarizer"`

	MCP *mcpConfig `yaml:"mcp"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	return parseData(data)
}

func parseData(data []byte) (*configFile, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil || *limit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}

var (
	errMissingCatalog     = errors.New("catalog path is required")
	errMissingAuthorizers = errors.New("at least one authorizer is required unless insecure is set")
)
