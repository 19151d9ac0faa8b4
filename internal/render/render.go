// Package render turns rewritten Markdown into HTML body fragments.
package render

import (
	"bytes"
	"fmt"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer holds a configured goldmark instance, reused across documents.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a renderer. codeStyle names a chroma style for fenced code
// blocks; highlighting emits inline styles so pages need no highlight CSS.
func New(codeStyle string) *Renderer {
	if codeStyle == "" {
		codeStyle = "github"
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(codeStyle),
			),
		),
		goldmark.WithRendererOptions(
			// The embed pass injects img, video and span tags into the
			// Markdown stream, so raw HTML must pass through.
			html.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// HTML converts one document body. The result is a fragment, not a full page.
func (r *Renderer) HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
