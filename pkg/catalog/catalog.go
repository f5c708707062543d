package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aiacademy/tutor/pkg/text"

	"gopkg.in/yaml.v3"
)

var ErrEmptyQuery = errors.New("query is empty")

type Searcher interface {
	Search(ctx context.Context, query string, options *SearchOptions) ([]Match, error)
}

type SearchOptions struct {
	Limit *int
}

// Match is a single search hit. LessonRef addresses the lesson as
// "<courseSlug>/<lessonSlug>".
type Match struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	LessonRef string `json:"lessonRef"`

	Score float64 `json:"-"`
}

type File struct {
	Courses []Course `yaml:"courses"`
}

type Course struct {
	Slug  string `yaml:"slug"`
	Title string `yaml:"title"`

	Description string `yaml:"description"`

	Lessons []Lesson `yaml:"lessons"`
}

type Lesson struct {
	ID    string `yaml:"id"`
	Slug  string `yaml:"slug"`
	Title string `yaml:"title"`

	Description string `yaml:"description"`

	Content []text.Block `yaml:"content"`

	PlaybackID string `yaml:"playback_id"`
}

// Load reads a course catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var file File

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	for _, c := range file.Courses {
		if c.Slug == "" {
			return nil, fmt.Errorf("course %q has no slug", c.Title)
		}

		for _, l := range c.Lessons {
			if l.Slug == "" {
				return nil, fmt.Errorf("lesson %q in course %s has no slug", l.Title, c.Slug)
			}
		}
	}

	return &file, nil
}
