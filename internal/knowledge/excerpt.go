package knowledge

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// ExcerptLimit is the rune budget of a derived excerpt, ellipsis
// included.
const ExcerptLimit = 160

const ellipsis = "..."

var (
	mdOnce sync.Once
	md     goldmark.Markdown
)

func markdown() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return md
}

// parse returns the document AST of body and the source it indexes.
func parse(body string) (ast.Node, []byte) {
	src := []byte(body)
	return markdown().Parser().Parse(text.NewReader(src)), src
}

// PlainText renders markdown as a single line of prose. Code blocks,
// images, and raw HTML are dropped, inline markup is reduced to its
// text, and runs of whitespace collapse to one space.
func PlainText(content string) string {
	_, body := splitFrontmatter(content)
	doc, src := parse(body)
	return nodeText(doc, src)
}

func nodeText(root ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			buf.WriteByte(' ')
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(n.Segment.Value(src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(n.Value)
		case *ast.AutoLink:
			buf.Write(n.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(buf.String()), " ")
}

// Excerpt returns the plain text of content cut to limit runes. Text
// longer than limit keeps its first limit-3 runes followed by "...".
func Excerpt(content string, limit int) string {
	return truncate(PlainText(content), limit)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	keep := limit - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

// splitFrontmatter separates a leading "---" fenced YAML block from the
// markdown body. Content without a closed block is all body.
func splitFrontmatter(content string) (front, body string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", content
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return "", content
}
