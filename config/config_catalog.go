package config

import (
	"path/filepath"

	"github.com/aiacademy/tutor/pkg/catalog"
	"github.com/aiacademy/tutor/pkg/catalog/memory"
)

type catalogConfig struct {
	Path string `yaml:"path"`

	SnippetLength int `yaml:"snippet_length"`
}

// registerCatalog loads the course catalog. Relative paths resolve against
// the directory of the config file.
func (c *Config) registerCatalog(f *configFile, dir string) error {
	path := f.Catalog.Path

	if path == "" {
		return errMissingCatalog
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	file, err := catalog.Load(path)

	if err != nil {
		return err
	}

	var options []memory.Option

	if f.Catalog.SnippetLength > 0 {
		options = append(options, memory.WithSnippetLength(f.Catalog.SnippetLength))
	}

	p, err := memory.New(file, options...)

	if err != nil {
		return err
	}

	c.Catalog = p

	return nil
}
