package links

import (
	"fmt"
	"html"
	"strings"
)

// StyleBroken replaces every placeholder token of the ledger in rendered
// HTML with an inert styled span carrying the original link text. Each
// token must be consumed exactly once and none may survive: a miscount
// means the renderer mangled a placeholder, and the document fails rather
// than ship corrupted output. Ordinary anchors are never touched since
// only token text is substituted.
func (r *Result) StyleBroken(rendered string) (string, error) {
	// Highest ordinal first: token 12 would otherwise be counted as an
	// occurrence of token 1.
	for i := len(r.Broken) - 1; i >= 0; i-- {
		ref := r.Broken[i]
		switch n := strings.Count(rendered, ref.Token); n {
		case 1:
		case 0:
			return "", fmt.Errorf("broken-link token for %q missing from rendered output", ref.Target)
		default:
			return "", fmt.Errorf("broken-link token for %q rendered %d times", ref.Target, n)
		}
		span := fmt.Sprintf(`<span class="broken-link" title="%s">%s</span>`,
			html.EscapeString(ref.Target), html.EscapeString(ref.Display))
		rendered = strings.Replace(rendered, ref.Token, span, 1)
	}
	if r.prefix != "" && strings.Contains(rendered, r.prefix) {
		return "", fmt.Errorf("unconsumed broken-link token in rendered output")
	}
	return rendered, nil
}
