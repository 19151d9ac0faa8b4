package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vaultpub/internal/config"
	storage "vaultpub/internal/storage/fs"
	"vaultpub/internal/testutil"
)

func testConfig(t *testing.T, vaultDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Site.Title = "Test Vault"
	cfg.Vault.Path = vaultDir
	cfg.Output.Dir = filepath.Join(t.TempDir(), "public")
	return cfg
}

func runExport(t *testing.T, cfg *config.Config, opts Options) *Report {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	report, err := e.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return report
}

func basicVault(t *testing.T) string {
	t.Helper()
	return testutil.WriteVault(t, map[string]string{
		"Welcome.md":                "# Welcome\n\nSee [[Guides/Getting Started]] and [[Missing Note]].\n\n![[pic.png|Screenshot|300]]\n",
		"Guides/Getting Started.md": "Back to [[Welcome]].\n",
		"media/pic.png":             "not a real png",
	})
}

func TestRunExportsSite(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	report := runExport(t, cfg, Options{})

	if report.Pages != 2 || report.Written != 2 || report.Skipped != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Assets != 1 {
		t.Fatalf("assets = %d", report.Assets)
	}
	if len(report.Broken) != 1 || report.Broken[0].Doc != "Welcome.md" || report.Broken[0].Target != "Missing Note" {
		t.Fatalf("broken = %+v", report.Broken)
	}

	for _, rel := range []string{
		"welcome.html",
		"guides/getting-started.html",
		"assets/pic.png",
		"index.html",
		"site.css",
		"404.html",
		".nojekyll",
	} {
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, rel)); err != nil {
			t.Fatalf("missing output %s: %v", rel, err)
		}
	}

	welcome := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "welcome.html"))
	if !strings.Contains(welcome, `<a href="guides/getting-started.html">Guides/Getting Started</a>`) {
		t.Fatalf("resolved link missing: %q", welcome)
	}
	if !strings.Contains(welcome, `<span class="broken-link" title="Missing Note">Missing Note</span>`) {
		t.Fatalf("broken span missing: %q", welcome)
	}
	if !strings.Contains(welcome, `<img src="assets/pic.png" alt="Screenshot" style="width: 300px"`) {
		t.Fatalf("embed missing: %q", welcome)
	}
	if !strings.Contains(welcome, `<h1 id="welcome">`) {
		t.Fatalf("heading id missing: %q", welcome)
	}
	if strings.Contains(welcome, "deadlink-") {
		t.Fatalf("placeholder token leaked: %q", welcome)
	}

	guide := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "guides/getting-started.html"))
	if !strings.Contains(guide, `<a href="../welcome.html">Welcome</a>`) {
		t.Fatalf("uplink not relativized: %q", guide)
	}
	if !strings.Contains(guide, `href="../site.css"`) {
		t.Fatalf("stylesheet link not relativized: %q", guide)
	}

	listing := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "index.html"))
	if !strings.Contains(listing, `<a href="welcome.html">Welcome</a>`) {
		t.Fatalf("listing misses welcome: %q", listing)
	}
	if !strings.Contains(listing, `<a href="guides/getting-started.html">Getting Started</a>`) {
		t.Fatalf("listing misses guide: %q", listing)
	}
}

func TestRunSecondRunSkips(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	runExport(t, cfg, Options{})

	second := runExport(t, cfg, Options{})
	if second.Written != 0 || second.Skipped != 2 || second.Assets != 0 {
		t.Fatalf("second run = %+v", second)
	}
}

func TestRunDetectsChange(t *testing.T) {
	dir := basicVault(t)
	cfg := testConfig(t, dir)
	runExport(t, cfg, Options{})

	path := filepath.Join(dir, "Guides", "Getting Started.md")
	if err := os.WriteFile(path, []byte("Changed. [[Welcome]]\n"), 0o644); err != nil {
		t.Fatalf("rewrite doc: %v", err)
	}

	second := runExport(t, cfg, Options{})
	if second.Written != 1 || second.Skipped != 1 {
		t.Fatalf("second run = %+v", second)
	}
	guide := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "guides/getting-started.html"))
	if !strings.Contains(guide, "Changed.") {
		t.Fatalf("change not rendered: %q", guide)
	}
}

func TestRunForceRebuilds(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	runExport(t, cfg, Options{})

	forced := runExport(t, cfg, Options{Force: true})
	if forced.Written != 2 || forced.Skipped != 0 || forced.Assets != 1 {
		t.Fatalf("forced run = %+v", forced)
	}
}

func TestRunPrunesDeletedDoc(t *testing.T) {
	dir := testutil.WriteVault(t, map[string]string{
		"Welcome.md":  "# Home\n",
		"Old/Page.md": "going away\n",
	})
	cfg := testConfig(t, dir)
	runExport(t, cfg, Options{})

	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "old/page.html")); err != nil {
		t.Fatalf("first run output missing: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "Old", "Page.md")); err != nil {
		t.Fatalf("remove doc: %v", err)
	}
	second := runExport(t, cfg, Options{})
	if second.Removed != 1 {
		t.Fatalf("second run = %+v", second)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "old/page.html")); !os.IsNotExist(err) {
		t.Fatalf("stale output survived: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "old")); !os.IsNotExist(err) {
		t.Fatalf("empty dir survived: %v", err)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	report := runExport(t, cfg, Options{DryRun: true})

	if report.Pages != 2 || report.Written != 0 || report.Assets != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Broken) != 1 {
		t.Fatalf("broken = %+v", report.Broken)
	}
	if _, err := os.Stat(cfg.Output.Dir); !os.IsNotExist(err) {
		t.Fatalf("dry run touched the output dir: %v", err)
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	lock, err := storage.Acquire(cfg.Output.LockPath(), 0)
	if err != nil {
		t.Fatalf("pre-lock: %v", err)
	}
	defer lock.Release()

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	if _, err := e.Run(context.Background(), Options{}); !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
}

func TestRunExcludedTargetDegrades(t *testing.T) {
	dir := testutil.WriteVault(t, map[string]string{
		"Welcome.md":        "See [[Secret]].\n",
		"Private/Secret.md": "hidden\n",
	})
	cfg := testConfig(t, dir)
	cfg.Vault.Exclude = []string{"Private/*"}
	report := runExport(t, cfg, Options{})

	if len(report.Broken) != 1 || report.Broken[0].Target != "Secret" {
		t.Fatalf("broken = %+v", report.Broken)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "private/secret.html")); !os.IsNotExist(err) {
		t.Fatalf("excluded doc was exported: %v", err)
	}
	welcome := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "welcome.html"))
	if !strings.Contains(welcome, `<span class="broken-link" title="Secret">Secret</span>`) {
		t.Fatalf("excluded link did not degrade: %q", welcome)
	}
}

func TestRunDesignatedIndex(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	cfg.Vault.Index = "Guides/Getting Started.md"
	runExport(t, cfg, Options{})

	front := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "index.html"))
	if !strings.Contains(front, `<a href="welcome.html">Welcome</a>`) {
		t.Fatalf("front page links not relativized to root: %q", front)
	}
	guide := testutil.ReadFile(t, filepath.Join(cfg.Output.Dir, "guides/getting-started.html"))
	if !strings.Contains(guide, `<a href="../welcome.html">Welcome</a>`) {
		t.Fatalf("regular output changed: %q", guide)
	}
}

func TestRunMissingIndexDocFails(t *testing.T) {
	cfg := testConfig(t, basicVault(t))
	cfg.Vault.Index = "Nope.md"
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	if _, err := e.Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for missing index document")
	}
}

func TestRunAbortsOnBadFrontmatter(t *testing.T) {
	dir := testutil.WriteVault(t, map[string]string{
		"Bad.md": "---\n: : :\n\t-x\n---\nbody\n",
	})
	cfg := testConfig(t, dir)
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	_, err = e.Run(context.Background(), Options{})
	if err == nil || !strings.Contains(err.Error(), "Bad.md") {
		t.Fatalf("err = %v, want document context", err)
	}
}
