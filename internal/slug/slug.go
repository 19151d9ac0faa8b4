// Package slug converts vault paths and heading text to URL-safe form.
package slug

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// Text slugifies free text: lowercased, diacritics transliterated, runs of
// non-alphanumerics collapsed to single hyphens, ends trimmed. Heading
// fragments and path components share this one transformation so link
// anchors and generated ids always agree.
func Text(s string) string {
	// goslug keeps underscores; fold them into the hyphen rule first.
	return goslug.Make(strings.ReplaceAll(s, "_", "-"))
}

// Path slugifies each /-separated segment of a vault path. Segments ending
// in .md keep the extension and have only the stem slugified; every other
// segment is slugified whole. Deterministic and idempotent, but distinct
// inputs may collapse to the same output.
func Path(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		if stem, ok := strings.CutSuffix(part, ".md"); ok {
			parts[i] = Text(stem) + ".md"
			continue
		}
		parts[i] = Text(part)
	}
	return strings.Join(parts, "/")
}
