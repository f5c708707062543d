package text

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StripMarkdown parses markdown and returns its readable text. Block
// elements are separated by blank lines; inline markup is dropped.
func StripMarkdown(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var sb strings.Builder

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument && n.NextSibling() != nil {
				sb.WriteString("\n\n")
			}

			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))

			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteString(" ")
			}

		case *ast.String:
			sb.Write(node.Value)

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()

			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				sb.Write(line.Value(source))
			}

			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return Normalize(sb.String())
}

// Truncate shortens text to at most limit runes, cutting at the last word
// boundary and appending an ellipsis when anything was removed.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:limit])

	if i := strings.LastIndexAny(cut, " \n\t"); i > len(cut)/2 {
		cut = cut[:i]
	}

	return strings.TrimSpace(cut) + "…"
}
