package config

import (
	"time"

	"github.com/aiacademy/tutor/pkg/audio/mux"
	"github.com/aiacademy/tutor/pkg/summarizer"
)

type summarizerConfig struct {
	Model string `yaml:"model"`

	Instructions string `yaml:"instructions"`

	MaxTokens   *int     `yaml:"max_tokens"`
	Temperature *float32 `yaml:"temperature"`

	Audio *audioConfig `yaml:"audio"`
}

type audioConfig struct {
	Disabled bool `yaml:"disabled"`

	URL       string `yaml:"url"`
	Extension string `yaml:"extension"`

	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

func (c *Config) registerSummarizer(f *configFile) error {
	cfg := f.Summarizer

	completer, err := c.Completer(cfg.Model)

	if err != nil {
		return err
	}

	options := []summarizer.Option{
		summarizer.WithSystemPrompt(cfg.Instructions),
	}

	if cfg.MaxTokens != nil {
		options = append(options, summarizer.WithMaxTokens(*cfg.MaxTokens))
	}

	if cfg.Temperature != nil {
		options = append(options, summarizer.WithTemperature(*cfg.Temperature))
	}

	if cfg.Audio == nil || !cfg.Audio.Disabled {
		fetcher, err := createAudio(cfg.Audio)

		if err != nil {
			return err
		}

		options = append(options, summarizer.WithAudio(fetcher))
	}

	p, err := summarizer.New(completer, c.Catalog, options...)

	if err != nil {
		return err
	}

	c.Summarizer = p

	return nil
}

func createAudio(cfg *audioConfig) (*mux.Client, error) {
	if cfg == nil {
		return mux.New()
	}

	var options []mux.Option

	if cfg.URL != "" {
		options = append(options, mux.WithURL(cfg.URL))
	}

	if cfg.Extension != "" {
		options = append(options, mux.WithExtension(cfg.Extension))
	}

	if cfg.Timeout > 0 {
		options = append(options, mux.WithTimeout(cfg.Timeout))
	}

	if cfg.MaxBytes > 0 {
		options = append(options, mux.WithMaxBytes(cfg.MaxBytes))
	}

	return mux.New(options...)
}
