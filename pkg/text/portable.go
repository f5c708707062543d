package text

import (
	"strings"
)

// Block is a Portable Text block as stored by the content platform. Only
// "block" typed entries carry text; other types (images, embeds) are kept
// but ignored when rendering plain text.
type Block struct {
	Key  string `json:"_key,omitempty" yaml:"_key,omitempty"`
	Type string `json:"_type" yaml:"_type"`

	Style    string `json:"style,omitempty" yaml:"style,omitempty"`
	ListItem string `json:"listItem,omitempty" yaml:"listItem,omitempty"`

	Children []Span `json:"children,omitempty" yaml:"children,omitempty"`
}

type Span struct {
	Key  string `json:"_key,omitempty" yaml:"_key,omitempty"`
	Type string `json:"_type" yaml:"_type"`

	Text  string   `json:"text" yaml:"text"`
	Marks []string `json:"marks,omitempty" yaml:"marks,omitempty"`
}

// Paragraph builds a normal style block from a single span.
func Paragraph(text string) Block {
	return Block{
		Type:  "block",
		Style: "normal",

		Children: []Span{
			{
				Type: "span",
				Text: text,
			},
		},
	}
}

// PlainText renders blocks as paragraphs separated by blank lines. Span text
// within a block is concatenated without separators.
func PlainText(blocks []Block) string {
	var paragraphs []string

	for _, b := range blocks {
		if b.Type != "block" {
			continue
		}

		var sb strings.Builder

		for _, s := range b.Children {
			sb.WriteString(s.Text)
		}

		paragraphs = append(paragraphs, sb.String())
	}

	return strings.Join(paragraphs, "\n\n")
}
