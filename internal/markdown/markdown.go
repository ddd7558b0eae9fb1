package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts user-authored markdown (profile descriptions) to HTML.
// Raw HTML in the source is escaped by goldmark's default renderer, which
// makes the output safe to embed for user-supplied content.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Renderer{
		md: md,
	}
}

func (r *Renderer) Render(source string) ([]byte, error) {
	var buf bytes.Buffer
	err := r.md.Convert([]byte(source), &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
