package extract

import (
	"strings"

	"github.com/buildingassets/buildingchat/internal/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownExtractor parses markdown and emits one page per top-level
// section. A document without level-1 headings becomes a single page.
type markdownExtractor struct{}

func (markdownExtractor) Name() string {
	return "markdown"
}

func (markdownExtractor) Extract(data []byte) ([]model.PageText, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var pages []model.PageText
	var current []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n\n"))
		current = nil
		if joined == "" {
			return
		}
		pages = append(pages, model.PageText{
			Page:      len(pages) + 1,
			Text:      joined,
			WordCount: countWords(joined),
		})
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok && h.Level == 1 {
			flush()
			current = append(current, string(h.Text(data)))
			continue
		}
		if cb, ok := node.(*ast.FencedCodeBlock); ok {
			var sb strings.Builder
			for i := 0; i < cb.Lines().Len(); i++ {
				line := cb.Lines().At(i)
				sb.Write(line.Value(data))
			}
			if txt := strings.TrimSpace(sb.String()); txt != "" {
				current = append(current, txt)
			}
			continue
		}
		if txt := blockText(node, data); txt != "" {
			current = append(current, txt)
		}
	}
	flush()
	return pages, nil
}

func blockText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func init() {
	Register("md", markdownExtractor{})
	Register("markdown", markdownExtractor{})
}
