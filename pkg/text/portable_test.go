package text

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	blocks := []Block{
		{
			Type:  "block",
			Style: "h2",
			Children: []Span{
				{Type: "span", Text: "Goroutines"},
			},
		},
		{
			Type: "image",
		},
		{
			Type: "block",
			Children: []Span{
				{Type: "span", Text: "A goroutine is "},
				{Type: "span", Text: "cheap", Marks: []string{"strong"}},
				{Type: "span", Text: "."},
			},
		},
	}

	require.Equal(t, "Goroutines\n\nA goroutine is cheap.", PlainText(blocks))
}

func TestPlainTextEmpty(t *testing.T) {
	require.Equal(t, "", PlainText(nil))
}

func TestParagraph(t *testing.T) {
	require.Equal(t, "hello", PlainText([]Block{Paragraph("hello")}))
}
