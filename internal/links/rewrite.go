// Package links rewrites Obsidian wiki syntax in raw markdown into
// standard markdown and HTML. Media embeds are rewritten before plain
// links, resolution is delegated to the vault, and references that cannot
// be resolved degrade into placeholder tokens that the styler turns into
// inert spans after rendering.
package links

import (
	"fmt"
	"html"
	"path"
	"strings"

	"vaultpub/internal/pathmap"
	"vaultpub/internal/slug"
)

// ResolveFunc maps a wiki link target to a vault path, relative to the
// document containing the link. ok is false when nothing matches.
type ResolveFunc func(linkpath, fromPath string) (string, bool)

// Rewriter rewrites the wiki syntax of documents for one export run. The
// table is a frozen snapshot; the nonce makes placeholder tokens unique to
// the run so stale tokens from earlier output can never be consumed.
type Rewriter struct {
	table   *pathmap.Table
	resolve ResolveFunc
	media   *Types
	prefix  string
}

// NewRewriter wires a rewriter to a frozen table and a resolver. A nil
// media table falls back to DefaultTypes.
func NewRewriter(table *pathmap.Table, resolve ResolveFunc, media *Types, nonce string) *Rewriter {
	if media == nil {
		media = DefaultTypes()
	}
	return &Rewriter{
		table:   table,
		resolve: resolve,
		media:   media,
		prefix:  "deadlink-" + nonce,
	}
}

// BrokenRef is one wiki link that could not be resolved to an exported
// document. Token is the placeholder text standing in for it until the
// styler runs.
type BrokenRef struct {
	Token   string
	Target  string
	Display string
}

// Result is the rewritten markdown of one document plus the ledger of its
// broken references.
type Result struct {
	Markdown string
	Broken   []BrokenRef
	prefix   string
}

// Rewrite processes one document addressed at its slugged output path:
// the embed pass first, then the link pass, both skipping fenced blocks
// and inline code. The source text must not already contain the token
// prefix; that would make the exactly-once styling check meaningless, so
// it fails the document.
func (rw *Rewriter) Rewrite(fromPath, markdown string) (*Result, error) {
	return rw.RewriteAt(fromPath, htmlPath(rw.table.SlugFor(fromPath)), markdown)
}

// RewriteAt processes one document as if its output lived at outPath.
// Resolution still happens relative to fromPath; only the emitted
// relative hrefs change. Used when a document is published at a second
// location, like the site front page.
func (rw *Rewriter) RewriteAt(fromPath, outPath, markdown string) (*Result, error) {
	if strings.Contains(markdown, rw.prefix) {
		return nil, fmt.Errorf("document %s contains reserved token prefix %s", fromPath, rw.prefix)
	}

	res := &Result{prefix: rw.prefix}
	fromHTML := outPath

	withEmbeds, err := rewriteOutsideCode(markdown, func(seg string) (string, error) {
		return rw.rewriteEmbeds(seg, fromPath, fromHTML), nil
	})
	if err != nil {
		return nil, err
	}
	withLinks, err := rewriteOutsideCode(withEmbeds, func(seg string) (string, error) {
		return rw.rewriteLinks(seg, fromPath, fromHTML, res), nil
	})
	if err != nil {
		return nil, err
	}

	res.Markdown = withLinks
	return res, nil
}

// rewriteLinks replaces every [[...]] in a non-code segment.
func (rw *Rewriter) rewriteLinks(seg, fromPath, fromHTML string, res *Result) string {
	var out strings.Builder
	rest := seg
	for {
		start := strings.Index(rest, "[[")
		if start == -1 {
			out.WriteString(rest)
			return out.String()
		}
		end := strings.Index(rest[start+2:], "]]")
		if end == -1 {
			out.WriteString(rest)
			return out.String()
		}
		inner := rest[start+2 : start+2+end]
		out.WriteString(rest[:start])
		out.WriteString(rw.renderLink(inner, fromPath, fromHTML, res))
		rest = rest[start+2+end+2:]
	}
}

func (rw *Rewriter) renderLink(inner, fromPath, fromHTML string, res *Result) string {
	l := parseLink(inner)
	if isExternal(l.Target) {
		return "[[" + inner + "]]"
	}

	target, ok := l.Target, true
	if target == "" {
		target = fromPath
	} else {
		target, ok = rw.resolve(l.Target, fromPath)
	}
	if !ok || !rw.table.IsExported(target) {
		token := fmt.Sprintf("%s-%d", rw.prefix, len(res.Broken))
		res.Broken = append(res.Broken, BrokenRef{
			Token:   token,
			Target:  inner,
			Display: l.Display,
		})
		return token
	}

	href := pathmap.Relative(fromHTML, htmlPath(rw.table.SlugFor(target)))
	if l.Subpath != "" {
		href += "#" + slug.Text(l.Subpath)
	}
	return "[" + l.Display + "](" + href + ")"
}

// rewriteEmbeds replaces every ![[...]] in a non-code segment. Embeds do
// not go through the ledger: their markup is final HTML either way, so
// broken ones emit their placeholder span inline.
func (rw *Rewriter) rewriteEmbeds(seg, fromPath, fromHTML string) string {
	var out strings.Builder
	rest := seg
	for {
		start := strings.Index(rest, "![[")
		if start == -1 {
			out.WriteString(rest)
			return out.String()
		}
		end := strings.Index(rest[start+3:], "]]")
		if end == -1 {
			out.WriteString(rest)
			return out.String()
		}
		inner := rest[start+3 : start+3+end]
		out.WriteString(rest[:start])
		out.WriteString(rw.renderEmbed(inner, fromPath, fromHTML))
		rest = rest[start+3+end+2:]
	}
}

func (rw *Rewriter) renderEmbed(inner, fromPath, fromHTML string) string {
	e := parseEmbed(inner)
	resolved, ok := rw.resolve(e.Target, fromPath)
	if !ok {
		return rw.missingSpan(e.Target, e.Target)
	}

	base := path.Base(resolved)
	src := pathmap.Relative(fromHTML, "assets/"+base)
	label := e.Caption
	if label == "" {
		label = base
	}

	switch rw.media.Kind(extOf(resolved)) {
	case KindImage:
		tag := fmt.Sprintf(`<img src="%s" alt="%s"`, html.EscapeString(src), html.EscapeString(label))
		if e.Width > 0 {
			tag += fmt.Sprintf(` style="width: %dpx"`, e.Width)
		}
		return tag + ">"
	case KindVideo:
		tag := "<video controls"
		if e.Caption != "" {
			tag += fmt.Sprintf(` title="%s"`, html.EscapeString(e.Caption))
		}
		if e.Width > 0 {
			tag += fmt.Sprintf(` style="width: %dpx"`, e.Width)
		}
		tag += fmt.Sprintf(`><source src="%s"`, html.EscapeString(src))
		if mime, known := rw.media.MIME(extOf(resolved)); known {
			tag += fmt.Sprintf(` type="%s"`, mime)
		}
		return tag + "></video>"
	default:
		return rw.missingSpan(e.Target, resolved)
	}
}

func (rw *Rewriter) missingSpan(target, iconFrom string) string {
	return fmt.Sprintf(`<span class="media-missing" title="%s">%s media not found</span>`,
		html.EscapeString(target), rw.media.Icon(extOf(iconFrom)))
}

// MediaRefs enumerates the distinct embeddable media of one document:
// resolved vault paths of every ![[...]] outside code whose target
// resolves to a known media kind, deduplicated by resolved identity in
// first-appearance order.
func (rw *Rewriter) MediaRefs(fromPath, markdown string) []string {
	var refs []string
	seen := make(map[string]struct{})
	_, _ = rewriteOutsideCode(markdown, func(seg string) (string, error) {
		rest := seg
		for {
			start := strings.Index(rest, "![[")
			if start == -1 {
				return seg, nil
			}
			end := strings.Index(rest[start+3:], "]]")
			if end == -1 {
				return seg, nil
			}
			e := parseEmbed(rest[start+3 : start+3+end])
			rest = rest[start+3+end+2:]

			resolved, ok := rw.resolve(e.Target, fromPath)
			if !ok || rw.media.Kind(extOf(resolved)) == KindUnknown {
				continue
			}
			if _, dup := seen[resolved]; dup {
				continue
			}
			seen[resolved] = struct{}{}
			refs = append(refs, resolved)
		}
	})
	return refs
}
