package config

import (
	"github.com/aiacademy/tutor/pkg/agent"
	"github.com/aiacademy/tutor/pkg/provider"
	"github.com/aiacademy/tutor/pkg/provider/adapter/trimmer"
	"github.com/aiacademy/tutor/pkg/tool"
	"github.com/aiacademy/tutor/pkg/tool/search"
)

type tutorConfig struct {
	Model string `yaml:"model"`

	Instructions string `yaml:"instructions"`

	MaxIterations int `yaml:"max_iterations"`

	MaxTokens   *int     `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`

	Search  searchConfig  `yaml:"search"`
	History historyConfig `yaml:"history"`
}

type searchConfig struct {
	Limit int `yaml:"limit"`
}

type historyConfig struct {
	MaxTokens int `yaml:"max_tokens"`
	KeepTurns int `yaml:"keep_turns"`
}

func (c *Config) registerTutor(f *configFile) error {
	cfg := f.Tutor

	var searchOptions []search.Option

	if cfg.Search.Limit > 0 {
		searchOptions = append(searchOptions, search.WithLimit(cfg.Search.Limit))
	}

	s, err := search.New(c.Catalog, searchOptions...)

	if err != nil {
		return err
	}

	tools, err := tool.NewRegistry(s.Descriptor())

	if err != nil {
		return err
	}

	c.Tools = tools

	completer, err := c.Completer(cfg.Model)

	if err != nil {
		return err
	}

	instructions := cfg.Instructions

	if instructions == "" {
		instructions = agent.DefaultSystemInstruction
	}

	c.Tutor = &agent.Agent{
		Completer: trimHistory(completer, cfg.History),

		Config: agent.Config{
			SystemInstruction: instructions,

			Tools:         tools,
			MaxIterations: cfg.MaxIterations,

			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}

	return nil
}

func trimHistory(completer provider.Completer, cfg historyConfig) provider.Completer {
	return trimmer.New(completer,
		trimmer.WithTokenThreshold(cfg.MaxTokens),
		trimmer.WithKeepTurns(cfg.KeepTurns),
	)
}
