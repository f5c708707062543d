package mux

import (
	"net/http"
	"time"
)

type Option func(*Client)

func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithMaxBytes caps the size of a downloaded track. Larger tracks are
// reported as unavailable.
func WithMaxBytes(size int64) Option {
	return func(c *Client) {
		c.maxBytes = size
	}
}

func WithExtension(ext string) Option {
	return func(c *Client) {
		c.extension = ext
	}
}
