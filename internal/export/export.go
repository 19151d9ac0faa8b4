// Package export orchestrates one vault-to-site run: freeze the mapping
// table, rewrite and render every exported document, copy referenced
// media, and prune outputs whose source left the vault.
package export

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"vaultpub/internal/cache"
	"vaultpub/internal/config"
	"vaultpub/internal/links"
	"vaultpub/internal/pathmap"
	"vaultpub/internal/render"
	"vaultpub/internal/site"
	storage "vaultpub/internal/storage/fs"
	"vaultpub/internal/vault"
)

// Options tune one run.
type Options struct {
	// DryRun resolves and rewrites every document but writes nothing,
	// for link checking.
	DryRun bool
	// Force ignores cached fingerprints and rebuilds everything.
	Force bool
	// LiveReload is the SSE endpoint injected into pages, set by the
	// preview server.
	LiveReload string
}

// BrokenLink is one wiki reference that did not resolve to an exported
// document.
type BrokenLink struct {
	Doc    string // vault path of the containing document
	Target string // the reference as written
}

// Report summarises one run.
type Report struct {
	RunID    string
	Pages    int
	Written  int
	Skipped  int
	Assets   int
	Removed  int
	Broken   []BrokenLink
	Duration time.Duration
}

// Exporter renders a vault into a static site directory.
type Exporter struct {
	cfg    *config.Config
	tpl    *site.Template
	tplSrc string
	html   *render.Renderer
}

type pageEntry struct {
	doc   string
	out   string
	title string
}

// New prepares an exporter. The page template and the Markdown renderer
// are built once and reused across runs.
func New(cfg *config.Config) (*Exporter, error) {
	e := &Exporter{cfg: cfg, html: render.New(cfg.Render.CodeStyle)}
	if cfg.Render.Template == "" {
		tpl, err := site.Default()
		if err != nil {
			return nil, err
		}
		e.tpl = tpl
		return e, nil
	}

	src, err := os.ReadFile(cfg.Render.Template)
	if err != nil {
		return nil, fmt.Errorf("read page template: %w", err)
	}
	tpl, err := site.Parse(string(src))
	if err != nil {
		return nil, err
	}
	e.tpl = tpl
	e.tplSrc = string(src)
	return e, nil
}

// Run executes one export. Unresolvable references degrade into styled
// spans and are listed in the report; a document that cannot be read,
// parsed or rendered aborts the run.
func (e *Exporter) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()
	cfg := e.cfg
	report := &Report{RunID: uuid.NewString()}

	if !opts.DryRun {
		lock, err := storage.Acquire(cfg.Output.LockPath(), 0)
		if err != nil {
			return nil, fmt.Errorf("lock output: %w", err)
		}
		defer lock.Release()
	}

	v, err := vault.Open(cfg.Vault.Path, vault.Options{
		Exclude:        cfg.Vault.Exclude,
		RequirePublish: cfg.Vault.RequirePublish,
	})
	if err != nil {
		return nil, err
	}
	docs := v.Documents()
	if cfg.Vault.Index != "" && !slices.Contains(docs, cfg.Vault.Index) {
		return nil, fmt.Errorf("index document %s is not part of the export", cfg.Vault.Index)
	}

	table := pathmap.New(docs)
	rw := links.NewRewriter(table, v.Resolve, nil, report.RunID)
	siteFP := e.siteFingerprint(docs, opts)

	var db *cache.Cache
	if !opts.DryRun {
		db, err = cache.Open(cfg.Output.CachePath())
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := db.Init(ctx); err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		if err := e.writeChrome(); err != nil {
			return nil, err
		}
	}

	seenPages := make(map[string]struct{}, len(docs))
	seenAssets := make(map[string]string)
	entries := make([]pageEntry, 0, len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := v.ReadText(doc)
		if err != nil {
			return nil, err
		}
		meta, body, err := vault.SplitFrontmatter(content)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc, err)
		}

		res, err := rw.Rewrite(doc, body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc, err)
		}
		for _, b := range res.Broken {
			report.Broken = append(report.Broken, BrokenLink{Doc: doc, Target: b.Target})
		}

		if err := e.copyMedia(ctx, v, rw, db, doc, body, seenAssets, opts, report); err != nil {
			return nil, err
		}

		outRel := outputPath(table.SlugFor(doc))
		title := vault.DocTitle(meta, body, doc)
		entries = append(entries, pageEntry{doc: doc, out: outRel, title: title})
		seenPages[doc] = struct{}{}
		report.Pages++

		if opts.DryRun {
			continue
		}

		fp := cache.Fingerprint([]byte(siteFP + "\x00" + content))
		cached, had, err := db.Page(ctx, doc)
		if err != nil {
			return nil, err
		}
		if had && !opts.Force && cached.Fingerprint == fp && cached.Output == outRel {
			report.Skipped++
			slog.Debug("page unchanged", "doc", doc)
			continue
		}
		if had && cached.Output != outRel {
			old := filepath.Join(cfg.Output.Dir, filepath.FromSlash(cached.Output))
			if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("remove %s: %w", cached.Output, err)
			}
		}

		page, err := e.renderPage(res, title, outRel, opts)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc, err)
		}
		dest := filepath.Join(cfg.Output.Dir, filepath.FromSlash(outRel))
		if err := storage.WriteFileAtomic(dest, []byte(page), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", outRel, err)
		}
		if err := db.PutPage(ctx, cache.Page{Path: doc, Fingerprint: fp, Output: outRel}); err != nil {
			return nil, err
		}
		report.Written++
		slog.Debug("page written", "doc", doc, "out", outRel)
	}

	if !opts.DryRun {
		if err := e.writeFrontPage(ctx, v, table, rw, db, siteFP, entries, opts); err != nil {
			return nil, err
		}
		if err := e.prune(ctx, db, seenPages, seenAssets, report); err != nil {
			return nil, err
		}
		if err := db.SetMeta(ctx, "last_run_id", report.RunID); err != nil {
			return nil, err
		}
		if err := db.SetMeta(ctx, "site_fingerprint", siteFP); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	slog.Info("export finished",
		"run", report.RunID,
		"pages", report.Pages,
		"written", report.Written,
		"skipped", report.Skipped,
		"assets", report.Assets,
		"removed", report.Removed,
		"broken", len(report.Broken),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// renderPage runs the rendering half of the pipeline: markdown to HTML,
// broken-token styling, heading ids, then the page template.
func (e *Exporter) renderPage(res *links.Result, title, outRel string, opts Options) (string, error) {
	frag, err := e.html.HTML(res.Markdown)
	if err != nil {
		return "", err
	}
	frag, err = res.StyleBroken(frag)
	if err != nil {
		return "", err
	}
	frag, err = render.AssignHeadingIDs(frag)
	if err != nil {
		return "", err
	}
	return e.tpl.Render(site.PageData{
		Title:      title,
		SiteTitle:  e.cfg.Site.Title,
		Content:    frag,
		PathToRoot: pathToRoot(outRel),
		LiveReload: opts.LiveReload,
	})
}

// writeFrontPage publishes index.html: the configured index document when
// set, otherwise a generated listing of every exported page. A document
// whose own output is index.html needs neither.
func (e *Exporter) writeFrontPage(ctx context.Context, v *vault.Vault, table *pathmap.Table, rw *links.Rewriter, db *cache.Cache, siteFP string, entries []pageEntry, opts Options) error {
	cfg := e.cfg

	if doc := cfg.Vault.Index; doc != "" {
		if outputPath(table.SlugFor(doc)) == "index.html" {
			return nil
		}
		if claimed, taken := table.VaultPathOf("index.md"); taken && claimed != doc {
			slog.Warn("front page overwrites document output", "doc", claimed)
		}

		content, err := v.ReadText(doc)
		if err != nil {
			return err
		}
		meta, body, err := vault.SplitFrontmatter(content)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc, err)
		}

		fp := cache.Fingerprint([]byte(siteFP + "\x00front\x00" + content))
		if prev, err := db.Meta(ctx, "front_fingerprint"); err != nil {
			return err
		} else if prev == fp && !opts.Force {
			return nil
		}

		res, err := rw.RewriteAt(doc, "index.html", body)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc, err)
		}
		page, err := e.renderPage(res, vault.DocTitle(meta, body, doc), "index.html", opts)
		if err != nil {
			return fmt.Errorf("document %s: %w", doc, err)
		}
		if err := storage.WriteFileAtomic(filepath.Join(cfg.Output.Dir, "index.html"), []byte(page), 0o644); err != nil {
			return fmt.Errorf("write index.html: %w", err)
		}
		return db.SetMeta(ctx, "front_fingerprint", fp)
	}

	if _, taken := table.VaultPathOf("index.md"); taken {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("<h1>" + html.EscapeString(cfg.Site.Title) + "</h1>\n<ul>\n")
	for _, p := range entries {
		fmt.Fprintf(&sb, "<li><a href=\"%s\">%s</a></li>\n",
			html.EscapeString(p.out), html.EscapeString(p.title))
	}
	sb.WriteString("</ul>\n")
	frag := sb.String()

	fp := cache.Fingerprint([]byte(siteFP + "\x00front\x00" + frag))
	if prev, err := db.Meta(ctx, "front_fingerprint"); err != nil {
		return err
	} else if prev == fp && !opts.Force {
		return nil
	}

	page, err := e.tpl.Render(site.PageData{
		SiteTitle:  cfg.Site.Title,
		Content:    frag,
		LiveReload: opts.LiveReload,
	})
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(filepath.Join(cfg.Output.Dir, "index.html"), []byte(page), 0o644); err != nil {
		return fmt.Errorf("write index.html: %w", err)
	}
	return db.SetMeta(ctx, "front_fingerprint", fp)
}

// writeChrome writes the run-independent site files.
func (e *Exporter) writeChrome() error {
	cfg := e.cfg
	if err := storage.WriteFileAtomic(filepath.Join(cfg.Output.Dir, "site.css"), []byte(site.Stylesheet()), 0o644); err != nil {
		return fmt.Errorf("write site.css: %w", err)
	}
	if err := storage.WriteFileAtomic(filepath.Join(cfg.Output.Dir, ".nojekyll"), nil, 0o644); err != nil {
		return fmt.Errorf("write .nojekyll: %w", err)
	}

	notFound, err := e.tpl.Render(site.PageData{
		Title:     "Page not found",
		SiteTitle: cfg.Site.Title,
		Content:   "<h1>Page not found</h1>\n<p>The address does not match any page of this site.</p>\n",
	})
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(filepath.Join(cfg.Output.Dir, "404.html"), []byte(notFound), 0o644); err != nil {
		return fmt.Errorf("write 404.html: %w", err)
	}
	return nil
}

// siteFingerprint captures everything besides a document's own content
// that affects its rendered page, so a change to any of it re-renders the
// whole site.
func (e *Exporter) siteFingerprint(docs []string, opts Options) string {
	cfg := e.cfg
	var sb strings.Builder
	sb.WriteString(cfg.Site.Title)
	sb.WriteByte(0)
	sb.WriteString(cfg.Render.CodeStyle)
	sb.WriteByte(0)
	sb.WriteString(e.tplSrc)
	sb.WriteByte(0)
	sb.WriteString(strings.Join(cfg.Vault.Exclude, "\x00"))
	fmt.Fprintf(&sb, "\x00%v\x00%s\x00%s\x00", cfg.Vault.RequirePublish, cfg.Vault.Index, opts.LiveReload)
	sb.WriteString(strings.Join(docs, "\n"))
	return cache.Fingerprint([]byte(sb.String()))
}

func outputPath(slugged string) string {
	if stem, ok := strings.CutSuffix(slugged, ".md"); ok {
		return stem + ".html"
	}
	return slugged
}

func pathToRoot(outRel string) string {
	return strings.Repeat("../", strings.Count(outRel, "/"))
}
