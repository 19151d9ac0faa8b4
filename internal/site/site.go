// Package site wraps rendered fragments in the page chrome.
package site

import (
	_ "embed"
	"fmt"

	"github.com/aymerick/raymond"
)

//go:embed default.hbs
var defaultTemplate string

//go:embed site.css
var defaultStylesheet string

// PageData is the data one page render needs.
type PageData struct {
	Title      string
	SiteTitle  string
	Content    string // rendered HTML fragment, inserted verbatim
	PathToRoot string // "" at the site root, "../" per directory below it
	LiveReload string // SSE endpoint path, empty outside preview mode
}

// Template is a compiled page template.
type Template struct {
	tpl *raymond.Template
}

// Parse compiles a handlebars page template from source.
func Parse(src string) (*Template, error) {
	tpl, err := raymond.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Template{tpl: tpl}, nil
}

// Default compiles the embedded page template.
func Default() (*Template, error) {
	return Parse(defaultTemplate)
}

// Render produces a complete HTML page.
func (t *Template) Render(d PageData) (string, error) {
	out, err := t.tpl.Exec(map[string]interface{}{
		"title":      d.Title,
		"siteTitle":  d.SiteTitle,
		"content":    raymond.SafeString(d.Content),
		"pathToRoot": d.PathToRoot,
		"liveReload": d.LiveReload,
	})
	if err != nil {
		return "", fmt.Errorf("render page template: %w", err)
	}
	return out, nil
}

// Stylesheet returns the default stylesheet shipped next to exported pages.
func Stylesheet() string {
	return defaultStylesheet
}
