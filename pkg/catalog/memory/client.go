package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/aiacademy/tutor/pkg/catalog"
	"github.com/aiacademy/tutor/pkg/lesson"
	"github.com/aiacademy/tutor/pkg/text"
)

var (
	_ catalog.Searcher = (*Provider)(nil)
	_ lesson.Provider  = (*Provider)(nil)
)

// Provider serves a course catalog held in memory. It is read-only after
// construction and safe for concurrent use.
type Provider struct {
	entries []entry
	lessons map[string]*lesson.Lesson

	snippetLength int
}

type entry struct {
	ref   string
	title string

	snippet string

	fields []field
}

type field struct {
	text   string
	weight float64
}

type Option func(*Provider)

func WithSnippetLength(length int) Option {
	return func(p *Provider) {
		p.snippetLength = length
	}
}

func New(file *catalog.File, options ...Option) (*Provider, error) {
	p := &Provider{
		lessons: make(map[string]*lesson.Lesson),

		snippetLength: 240,
	}

	for _, option := range options {
		option(p)
	}

	if file == nil {
		file = &catalog.File{}
	}

	for _, c := range file.Courses {
		courseTitle := text.StripMarkdown(c.Title)
		courseDescription := text.StripMarkdown(c.Description)

		for _, l := range c.Lessons {
			ref := c.Slug + "/" + l.Slug

			id := l.ID

			if id == "" {
				id = ref
			}

			description := text.StripMarkdown(l.Description)
			content := text.PlainText(l.Content)

			snippet := description

			if snippet == "" {
				snippet = text.Normalize(content)
			}

			if snippet == "" {
				snippet = courseDescription
			}

			p.entries = append(p.entries, entry{
				ref:   ref,
				title: l.Title,

				snippet: text.Truncate(snippet, p.snippetLength),

				fields: []field{
					{text: l.Title, weight: 3},
					{text: courseTitle, weight: 2},
					{text: description, weight: 2},
					{text: courseDescription, weight: 1},
					{text: content, weight: 1},
				},
			})

			item := &lesson.Lesson{
				ID:   id,
				Slug: l.Slug,

				Title:       l.Title,
				Description: l.Description,

				Content: l.Content,
			}

			if l.PlaybackID != "" {
				item.Video = &lesson.Video{
					PlaybackID: l.PlaybackID,
				}
			}

			// lessons resolve by id and by the ref search results carry
			for _, key := range []string{id, ref} {
				if existing, ok := p.lessons[key]; ok {
					if existing == item {
						continue
					}

					return nil, fmt.Errorf("duplicate lesson %q", key)
				}

				p.lessons[key] = item
			}
		}
	}

	return p, nil
}

func (p *Provider) Lesson(ctx context.Context, id string) (*lesson.Lesson, error) {
	l, ok := p.lessons[id]

	if !ok {
		return nil, lesson.ErrNotFound
	}

	result := *l
	return &result, nil
}

func (p *Provider) Search(ctx context.Context, query string, options *catalog.SearchOptions) ([]catalog.Match, error) {
	if options == nil {
		options = &catalog.SearchOptions{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, catalog.ErrEmptyQuery
	}

	terms := tokenize(query)
	results := make([]catalog.Match, 0)

	for _, e := range p.entries {
		score := e.score(terms)

		if score <= 0 {
			continue
		}

		results = append(results, catalog.Match{
			Title:     e.title,
			Snippet:   e.snippet,
			LessonRef: e.ref,

			Score: score,
		})
	}

	slices.SortStableFunc(results, func(a, b catalog.Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if options.Limit != nil {
		limit := min(max(*options.Limit, 0), len(results))
		results = results[:limit]
	}

	return results, nil
}

func (e entry) score(terms []string) float64 {
	var score float64

	for _, f := range e.fields {
		words := tokenize(f.text)

		for _, t := range terms {
			if slices.ContainsFunc(words, func(w string) bool { return matches(t, w) }) {
				score += f.weight
			}
		}
	}

	return score
}

// matches reports whether a query term hits a word, allowing simple plural
// and suffix variants ("thread" hits "threads").
func matches(term, word string) bool {
	if term == word {
		return true
	}

	if len(term) < 4 || len(word) < 4 {
		return false
	}

	return strings.HasPrefix(word, term) || strings.HasPrefix(term, word)
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "about": true,
	"do": true, "does": true, "for": true, "how": true, "i": true,
	"in": true, "is": true, "it": true, "me": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "what": true,
	"which": true, "with": true, "you": true, "any": true, "there": true,
	"course": true, "courses": true, "lesson": true, "lessons": true,
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	result := fields[:0]

	for _, f := range fields {
		if stopWords[f] {
			continue
		}

		result = append(result, f)
	}

	return result
}
