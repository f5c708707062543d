package search

import (
	"context"
	"errors"

	"github.com/aiacademy/tutor/pkg/catalog"
	"github.com/aiacademy/tutor/pkg/tool"

	"github.com/google/jsonschema-go/jsonschema"
)

const NoMatchesMessage = "no matching courses found in the catalog"

type Client struct {
	provider catalog.Searcher

	limit int
}

func New(provider catalog.Searcher, options ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("catalog is required")
	}

	c := &Client{
		provider: provider,

		limit: 5,
	}

	for _, option := range options {
		option(c)
	}

	if c.limit <= 0 {
		c.limit = 5
	}

	return c, nil
}

// Descriptor describes the searchCourses tool for a tool registry.
func (c *Client) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        tool.SearchCourses,
		Description: "Search the Ai Academy course catalog for lessons relevant to the student's question. Returns lesson titles, short snippets and lesson references. Only the returned lessons exist in the catalog.",

		Input:  InputSchema(c.limit),
		Output: OutputSchema(),

		Handler: c.execute,
	}
}

// Search returns at most the configured number of matches, or an empty
// slice when nothing in the catalog matches.
func (c *Client) Search(ctx context.Context, query string) ([]Match, error) {
	return c.search(ctx, query, c.limit)
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]Match, error) {
	limit = min(limit, c.limit)

	data, err := c.provider.Search(ctx, query, &catalog.SearchOptions{
		Limit: &limit,
	})

	if errors.Is(err, catalog.ErrEmptyQuery) {
		return []Match{}, nil
	}

	if err != nil {
		return nil, err
	}

	results := []Match{}

	for _, m := range data {
		if len(results) >= limit {
			break
		}

		results = append(results, Match{
			Title:     m.Title,
			Snippet:   m.Snippet,
			LessonRef: m.LessonRef,
		})
	}

	return results, nil
}

func (c *Client) execute(ctx context.Context, parameters map[string]any) (any, error) {
	query, ok := parameters["query"].(string)

	if !ok {
		return nil, errors.New("missing query parameter")
	}

	limit := c.limit

	if val, ok := parameters["limit"].(float64); ok && val > 0 {
		limit = int(val)
	}

	matches, err := c.search(ctx, query, limit)

	if err != nil {
		return nil, err
	}

	result := Result{
		Matches: matches,
	}

	if len(matches) == 0 {
		result.Message = NoMatchesMessage
	}

	return result, nil
}

func InputSchema(limit int) *jsonschema.Schema {
	minLength := 1
	minimum := 1.0
	maximum := float64(limit)

	return &jsonschema.Schema{
		Type: "object",

		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "keywords describing the topic the student is asking about",
				MinLength:   &minLength,
				Pattern:     `\S`,
			},

			"limit": {
				Type:        "integer",
				Description: "optional maximum number of lessons to return",
				Minimum:     &minimum,
				Maximum:     &maximum,
			},
		},

		Required: []string{"query"},
	}
}

func OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",

		Properties: map[string]*jsonschema.Schema{
			"matches": {
				Type: "array",

				Items: &jsonschema.Schema{
					Type: "object",

					Properties: map[string]*jsonschema.Schema{
						"title":     {Type: "string"},
						"snippet":   {Type: "string"},
						"lessonRef": {Type: "string"},
					},

					Required: []string{"title", "snippet", "lessonRef"},
				},
			},

			"message": {
				Type: "string",
			},
		},

		Required: []string{"matches"},
	}
}
