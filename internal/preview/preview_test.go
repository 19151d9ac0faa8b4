package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vaultpub/internal/config"
	"vaultpub/internal/testutil"
)

func builtServer(t *testing.T) *Server {
	t.Helper()
	vaultDir := testutil.WriteVault(t, map[string]string{
		"Welcome.md":         "# Welcome\n\nSee [[Notes/Daily Log]].\n",
		"Notes/Daily Log.md": "Back to [[Welcome]].\n",
	})
	cfg := config.Default()
	cfg.Site.Title = "Preview Vault"
	cfg.Vault.Path = vaultDir
	cfg.Output.Dir = filepath.Join(t.TempDir(), "public")

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if _, err := s.rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	return s
}

func get(t *testing.T, ts *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, string(body)
}

func TestServeSitePages(t *testing.T) {
	s := builtServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	status, front := get(t, ts, "/")
	if status != http.StatusOK {
		t.Fatalf("front status = %d", status)
	}
	if !strings.Contains(front, `<a href="welcome.html">Welcome</a>`) {
		t.Fatalf("front listing missing entry: %q", front)
	}

	status, welcome := get(t, ts, "/welcome.html")
	if status != http.StatusOK {
		t.Fatalf("welcome status = %d", status)
	}
	if !strings.Contains(welcome, `<a href="notes/daily-log.html">Notes/Daily Log</a>`) {
		t.Fatalf("resolved link missing: %q", welcome)
	}
	if !strings.Contains(welcome, `new EventSource("/__vaultpub/reload")`) {
		t.Fatalf("reload script missing: %q", welcome)
	}

	status, log := get(t, ts, "/notes/daily-log.html")
	if status != http.StatusOK {
		t.Fatalf("nested status = %d", status)
	}
	if !strings.Contains(log, `<a href="../welcome.html">Welcome</a>`) {
		t.Fatalf("relative link missing: %q", log)
	}
}

func TestServeUnknownPathGets404Page(t *testing.T) {
	s := builtServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	status, body := get(t, ts, "/no-such-page.html")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if !strings.Contains(body, "Page not found") {
		t.Fatalf("404 page missing: %q", body)
	}
}

func TestServeHidesWorkDir(t *testing.T) {
	s := builtServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	if _, err := os.Stat(filepath.Join(s.cfg.Output.Dir, ".vaultpub", "cache.db")); err != nil {
		t.Fatalf("cache missing on disk: %v", err)
	}
	status, _ := get(t, ts, "/.vaultpub/cache.db")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
}

func TestServeBlocksTraversal(t *testing.T) {
	s := builtServer(t)
	secret := filepath.Join(filepath.Dir(s.cfg.Output.Dir), "secret.txt")
	if err := os.WriteFile(secret, []byte("topsecret"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/../secret.txt", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "topsecret") {
		t.Fatal("escaped the output directory")
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	s := builtServer(t)
	reload := s.hub.add()
	defer s.hub.remove(reload)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	welcome := filepath.Join(s.cfg.Vault.Path, "Welcome.md")
	if err := os.WriteFile(welcome, []byte("# Welcome\n\nUpdated body.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(s.cfg.Output.Dir, "welcome.html")
	waitFor(t, 5*time.Second, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && strings.Contains(string(data), "Updated body.")
	}, "rebuild did not update the page")

	select {
	case msg := <-reload:
		if len(msg) == 0 {
			t.Fatal("empty reload message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload broadcast after rebuild")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestSkipPath(t *testing.T) {
	out := filepath.Join(string(filepath.Separator), "vault", "public")
	cases := []struct {
		name string
		want bool
	}{
		{filepath.Join(string(filepath.Separator), "vault", "Note.md"), false},
		{filepath.Join(string(filepath.Separator), "vault", "public"), true},
		{filepath.Join(out, "welcome.html"), true},
		{filepath.Join(string(filepath.Separator), "vault", ".obsidian"), true},
		{filepath.Join(string(filepath.Separator), "vault", ".git"), true},
		{filepath.Join(string(filepath.Separator), "vault", "publicity.md"), false},
	}
	for _, tc := range cases {
		if got := skipPath(tc.name, out); got != tc.want {
			t.Errorf("skipPath(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
