package mux

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aiacademy/tutor/pkg/audio"
	"github.com/aiacademy/tutor/pkg/provider"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ audio.Fetcher = (*Client)(nil)

const (
	DefaultURL = "https://stream.mux.com"

	// inline request payloads are limited to 20 MB upstream
	DefaultMaxBytes = 20 << 20
)

// Client downloads the static audio rendition of a Mux video.
type Client struct {
	url       string
	extension string

	client *http.Client

	timeout  time.Duration
	maxBytes int64
}

func New(options ...Option) (*Client, error) {
	c := &Client{
		url:       DefaultURL,
		extension: "m4a",

		timeout:  30 * time.Second,
		maxBytes: DefaultMaxBytes,
	}

	for _, option := range options {
		option(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	c.url = strings.TrimRight(c.url, "/")

	return c, nil
}

func (c *Client) Fetch(ctx context.Context, playbackID string) (*provider.File, error) {
	if playbackID == "" {
		return nil, fmt.Errorf("%w: no playback id", audio.ErrUnavailable)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	name := "audio." + c.extension
	u := c.url + "/" + url.PathEscape(playbackID) + "/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrUnavailable, err)
	}

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrUnavailable, err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", audio.ErrUnavailable, resp.Status)
	}

	if c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("%w: track exceeds %d bytes", audio.ErrUnavailable, c.maxBytes)
	}

	reader := io.Reader(resp.Body)

	if c.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, c.maxBytes+1)
	}

	data, err := io.ReadAll(reader)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrUnavailable, err)
	}

	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: track exceeds %d bytes", audio.ErrUnavailable, c.maxBytes)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty track", audio.ErrUnavailable)
	}

	return &provider.File{
		Name: name,

		Content:     data,
		ContentType: contentType(resp.Header.Get("Content-Type")),
	}, nil
}

// contentType keeps an audio/* response type and falls back to audio/mp4,
// the container of the m4a rendition.
func contentType(header string) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "audio/") {
		return mediaType
	}

	return "audio/mp4"
}
