// Package markdown renders post bodies and derives plain-text excerpts.
package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is converted.
type Options struct {
	// Unsafe keeps raw HTML embedded in posts instead of dropping it.
	Unsafe bool
}

// Renderer converts Markdown bodies (frontmatter already removed) to HTML.
// It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a GitHub-flavoured Markdown renderer with heading IDs.
func NewRenderer(opts Options) *Renderer {
	rendererOpts := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Renderer{md: goldmark.New(rendererOpts...)}
}

// Render converts body to HTML.
func (r *Renderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt returns the text of the first paragraph of body, cut to at most
// maxRunes runes (with an ellipsis) when maxRunes is positive.
func Excerpt(body []byte, maxRunes int) string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var para gmast.Node
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering && n.Kind() == gmast.KindParagraph {
			para = n
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	if para == nil {
		return ""
	}

	var sb strings.Builder
	_ = gmast.Walk(para, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(body))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})

	out := strings.Join(strings.Fields(sb.String()), " ")
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		runes := []rune(out)
		out = strings.TrimSpace(string(runes[:maxRunes])) + "…"
	}
	return out
}
