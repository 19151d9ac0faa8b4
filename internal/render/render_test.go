package render

import (
	"strings"
	"testing"
)

func TestHTMLBasics(t *testing.T) {
	r := New("")
	out, err := r.HTML("# Title\n\nSome *emphasised* text.")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "<em>emphasised</em>") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestHTMLTables(t *testing.T) {
	r := New("")
	out, err := r.HTML("| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<table>") || !strings.Contains(out, "<td>1</td>") {
		t.Fatalf("table not rendered: %q", out)
	}
}

func TestHTMLSmartQuotes(t *testing.T) {
	r := New("")
	out, err := r.HTML(`He said "hello".`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "&ldquo;") || !strings.Contains(out, "&rdquo;") {
		t.Fatalf("typographer quotes missing: %q", out)
	}
}

func TestHTMLRawPassthrough(t *testing.T) {
	r := New("")
	in := `before <span class="media-missing" title="x">media not found</span> after`
	out, err := r.HTML(in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<span class="media-missing" title="x">`) {
		t.Fatalf("raw html stripped: %q", out)
	}
}

func TestHTMLHighlightedCode(t *testing.T) {
	r := New("monokai")
	out, err := r.HTML("```go\npackage main\n```")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<pre") || !strings.Contains(out, "style=") {
		t.Fatalf("code block not highlighted: %q", out)
	}
}
