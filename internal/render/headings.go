package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vaultpub/internal/slug"
)

// AssignHeadingIDs gives every h1-h6 element an id so fragment links
// produced by the link rewriter have a target. IDs are the slug form of
// the heading text; a repeated heading gets a numeric suffix from 2 up.
// Headings that already carry an id keep it.
func AssignHeadingIDs(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse rendered page: %w", err)
	}

	seen := map[string]int{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok && id != "" {
			seen[id]++
			return
		}
		base := slug.Text(s.Text())
		if base == "" {
			return
		}
		seen[base]++
		id := base
		if n := seen[base]; n > 1 {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		s.SetAttr("id", id)
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize rendered page: %w", err)
	}
	return out, nil
}
