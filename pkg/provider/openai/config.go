package openai

import (
	"net/http"
	"strings"

	"github.com/openai/openai-go/option"
)

const DefaultURL = "https://api.openai.com/v1/"

type Config struct {
	url string

	token string
	model string

	client *http.Client
}

type Option func(*Config)

func WithClient(client *http.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

// Options returns the request options for the configured endpoint. Any
// OpenAI compatible chat completions URL works.
func (c *Config) Options() []option.RequestOption {
	if c.url == "" {
		c.url = DefaultURL
	}

	c.url = strings.TrimRight(c.url, "/") + "/"

	options := []option.RequestOption{
		option.WithBaseURL(c.url),
	}

	if c.client != nil {
		options = append(options, option.WithHTTPClient(c.client))
	}

	if c.token != "" {
		options = append(options, option.WithAPIKey(c.token))
	}

	return options
}
