package links

import (
	"strconv"
	"strings"
)

// Link is one parsed [[...]] occurrence. Target may be empty for
// self-references like [[#Heading]].
type Link struct {
	Target  string
	Subpath string
	Display string
}

// parseLink splits the text between the brackets. The alias is everything
// after the first |; the subpath everything after the first # of the
// non-alias part. Display falls back to the target, or to the subpath for
// self-references.
func parseLink(inner string) Link {
	name, alias, hasAlias := strings.Cut(inner, "|")
	target, subpath, _ := strings.Cut(name, "#")

	l := Link{
		Target:  strings.TrimSpace(target),
		Subpath: strings.TrimSpace(subpath),
	}
	switch {
	case hasAlias:
		l.Display = strings.TrimSpace(alias)
	case l.Target != "":
		l.Display = l.Target
	default:
		l.Display = l.Subpath
	}
	return l
}

// Embed is one parsed ![[...]] occurrence. Width is 0 when no numeric
// parameter was given; Caption is empty when no text parameter was given.
type Embed struct {
	Target  string
	Caption string
	Width   int
}

// parseEmbed splits on |: the first part is the target, each further part
// is a width if it parses as a positive integer and a caption otherwise.
// The last value of each kind wins.
func parseEmbed(inner string) Embed {
	parts := strings.Split(inner, "|")
	e := Embed{Target: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			e.Width = n
			continue
		}
		e.Caption = p
	}
	return e
}

// htmlPath converts a slugged document path to its output path.
func htmlPath(slugged string) string {
	if stem, ok := strings.CutSuffix(slugged, ".md"); ok {
		return stem + ".html"
	}
	return slugged
}

// isExternal reports whether a link target is a URL rather than a vault
// reference.
func isExternal(target string) bool {
	return strings.Contains(target, "://")
}
