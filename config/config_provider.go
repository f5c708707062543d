package config

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aiacademy/tutor/pkg/limiter"
	"github.com/aiacademy/tutor/pkg/otel"
	"github.com/aiacademy/tutor/pkg/provider"
	"github.com/aiacademy/tutor/pkg/provider/anthropic"
	"github.com/aiacademy/tutor/pkg/provider/google"
	"github.com/aiacademy/tutor/pkg/provider/openai"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

func (c *Config) RegisterCompleter(id string, p provider.Completer) {
	if c.completer == nil {
		c.completer = make(map[string]provider.Completer)
	}

	if _, ok := c.completer[""]; !ok {
		c.completer[""] = p
	}

	c.completer[id] = p
}

// Completer returns the completer registered for a model id. The empty id
// selects the first configured model.
func (c *Config) Completer(id string) (provider.Completer, error) {
	if c.completer != nil {
		if p, ok := c.completer[id]; ok {
			return p, nil
		}
	}

	return nil, errors.New("completer not found: " + id)
}

func (c *Config) RegisterModel(id string, m provider.Model) {
	if c.models == nil {
		c.models = make(map[string]provider.Model)
	}

	c.models[id] = m
}

func (c *Config) Models() []provider.Model {
	var result []provider.Model

	for _, m := range c.models {
		result = append(result, m)
	}

	return result
}

type providerConfig struct {
	Type string `yaml:"type"`

	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	Limit *int `yaml:"limit"`

	Models yaml.Node `yaml:"models"`
}

type modelConfig struct {
	ID string `yaml:"id"`
}

type modelContext struct {
	ID string

	Client  *http.Client
	Limiter *rate.Limiter
}

func (c *Config) registerProviders(f *configFile) error {
	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	for _, p := range f.Providers {
		models, err := parseModels(p.Models)

		if err != nil {
			return err
		}

		if len(models) == 0 {
			return errors.New("provider " + p.Type + " has no models")
		}

		l := createLimiter(p.Limit)

		for _, m := range models {
			context := modelContext{
				ID: m.ID,

				Client:  client,
				Limiter: l,
			}

			completer, err := createCompleter(p, context)

			if err != nil {
				return err
			}

			c.RegisterModel(m.alias, provider.Model{ID: m.alias})
			c.RegisterCompleter(m.alias, completer)
		}
	}

	return nil
}

type namedModel struct {
	alias string
	modelConfig
}

// parseModels accepts either a list of model names or a map of aliases to
// model settings, keeping the order of the file.
func parseModels(node yaml.Node) ([]namedModel, error) {
	var result []namedModel

	switch node.Kind {
	case 0:
		return nil, nil

	case yaml.SequenceNode:
		var names []string

		if err := node.Decode(&names); err != nil {
			return nil, err
		}

		for _, name := range names {
			result = append(result, namedModel{alias: name, modelConfig: modelConfig{ID: name}})
		}

	case yaml.MappingNode:
		var configs map[string]modelConfig

		if err := node.Decode(&configs); err != nil {
			return nil, err
		}

		for i := 0; i+1 < len(node.Content); i += 2 {
			alias := node.Content[i].Value
			config := configs[alias]

			if config.ID == "" {
				config.ID = alias
			}

			result = append(result, namedModel{alias: alias, modelConfig: config})
		}

	default:
		return nil, errors.New("invalid models definition")
	}

	return result, nil
}

func createCompleter(cfg providerConfig, context modelContext) (provider.Completer, error) {
	var completer provider.Completer
	var err error

	name := strings.ToLower(cfg.Type)

	switch name {
	case "gemini", "google":
		name = "gcp.gemini"
		completer, err = googleCompleter(cfg, context)

	case "anthropic":
		completer, err = anthropicCompleter(cfg, context)

	case "openai":
		completer, err = openaiCompleter(cfg, context)

	default:
		return nil, errors.New("invalid provider type: " + cfg.Type)
	}

	if err != nil {
		return nil, err
	}

	return otel.NewCompleter(name, context.ID, limiter.NewCompleter(context.Limiter, completer)), nil
}

func googleCompleter(cfg providerConfig, context modelContext) (provider.Completer, error) {
	options := []google.Option{
		google.WithClient(context.Client),
	}

	if cfg.Token != "" {
		options = append(options, google.WithToken(cfg.Token))
	}

	if cfg.URL != "" {
		options = append(options, google.WithURL(cfg.URL))
	}

	return google.NewCompleter(context.ID, options...)
}

func anthropicCompleter(cfg providerConfig, context modelContext) (provider.Completer, error) {
	options := []anthropic.Option{
		anthropic.WithClient(context.Client),
	}

	if cfg.Token != "" {
		options = append(options, anthropic.WithToken(cfg.Token))
	}

	return anthropic.NewCompleter(cfg.URL, context.ID, options...)
}

func openaiCompleter(cfg providerConfig, context modelContext) (provider.Completer, error) {
	options := []openai.Option{
		openai.WithClient(context.Client),
	}

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	return openai.NewCompleter(cfg.URL, context.ID, options...)
}
