package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aiacademy/tutor/pkg/agent"

	"github.com/stretchr/testify/require"
)

const testCatalog = `
courses:
  - slug: concurrent-systems
    title: Concurrent Systems
    lessons:
      - slug: intro
        title: Introduction to Concurrent Systems
        playback_id: abc
`

func writeConfig(t *testing.T, config string) string {
	t.Helper()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(testCatalog), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(config), 0o600))

	return filepath.Join(dir, "config.yaml")
}

func TestParse(t *testing.T) {
	t.Setenv("TEST_TUTOR_TOKEN", "secret")

	path := writeConfig(t, `
address: ":9090"

authorizers:
  - type: static
    token: ${TEST_TUTOR_TOKEN}
  - type: header
    user_header: X-Student

providers:
  - type: gemini
    token: test
    limit: 10
    models:
      - gemini-2.5-flash
  - type: anthropic
    token: test
    models:
      sonnet:
        id: claude-sonnet-4-5

catalog:
  path: catalog.yaml

tutor:
  max_iterations: 3
  search:
    limit: 2

summarizer:
  model: gemini-2.5-flash
  audio:
    url: http://localhost:1234
    timeout: 5s

mcp:
  name: academy
`)

	cfg, err := Parse(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Address)
	require.Len(t, cfg.Authorizers, 2)
	require.Len(t, cfg.Models(), 2)

	_, err = cfg.Completer("sonnet")
	require.NoError(t, err)

	_, err = cfg.Completer("missing")
	require.Error(t, err)

	require.NotNil(t, cfg.Tutor)
	require.Equal(t, agent.DefaultSystemInstruction, cfg.Tutor.Config.SystemInstruction)
	require.Equal(t, 3, cfg.Tutor.Config.MaxIterations)
	require.Equal(t, 1, cfg.Tools.Len())

	require.NotNil(t, cfg.Summarizer)
	require.NotNil(t, cfg.MCP)
}

func TestParseDefaults(t *testing.T) {
	path := writeConfig(t, `
insecure: true

providers:
  - type: gemini
    models: [gemini-2.5-flash]

catalog:
  path: catalog.yaml
`)

	cfg, err := Parse(path)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Address)
	require.Empty(t, cfg.Authorizers)
	require.True(t, cfg.Insecure)
	require.Nil(t, cfg.MCP)
	require.Equal(t, 0, cfg.Tutor.Config.MaxIterations)
}

func TestParseErrors(t *testing.T) {
	for name, config := range map[string]string{
		"unknown field": "catalog:\n  path: catalog.yaml\nunknown: true\n",
		"no catalog":    "insecure: true\nproviders:\n  - type: gemini\n    models: [m]\n",
		"no auth":       "providers:\n  - type: gemini\n    models: [m]\ncatalog:\n  path: catalog.yaml\n",
		"no provider":   "insecure: true\ncatalog:\n  path: catalog.yaml\n",
		"bad provider":  "insecure: true\nproviders:\n  - type: other\n    models: [m]\ncatalog:\n  path: catalog.yaml\n",
		"bad auth":      "authorizers:\n  - type: other\nproviders:\n  - type: gemini\n    models: [m]\ncatalog:\n  path: catalog.yaml\n",
		"empty static":  "authorizers:\n  - type: static\nproviders:\n  - type: gemini\n    models: [m]\ncatalog:\n  path: catalog.yaml\n",
	} {
		_, err := Parse(writeConfig(t, config))
		require.Error(t, err, name)
	}
}

func TestParseAudioDuration(t *testing.T) {
	file, err := parseData([]byte("summarizer:\n  audio:\n    timeout: 2s\n    max_bytes: 1024\n"))
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, file.Summarizer.Audio.Timeout)
	require.Equal(t, int64(1024), file.Summarizer.Audio.MaxBytes)
}
