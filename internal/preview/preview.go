// Package preview serves the exported site locally, watches the vault
// and rebuilds on change, pushing a reload event to connected pages.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"vaultpub/internal/config"
	"vaultpub/internal/export"
)

// ReloadPath is the event-stream endpoint exported pages subscribe to.
const ReloadPath = "/__vaultpub/reload"

// Server rebuilds and serves the exported site.
type Server struct {
	cfg      *config.Config
	exporter *export.Exporter
	hub      *reloadHub
}

// New prepares a preview server for the configured vault.
func New(cfg *config.Config) (*Server, error) {
	exp, err := export.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, exporter: exp, hub: newReloadHub()}, nil
}

// Run exports the site, serves it on the configured port and watches the
// vault until ctx is cancelled. The initial export must succeed; later
// rebuild failures are logged and the last good site stays up.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.rebuild(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    s.cfg.Serve.Address(),
		Handler: s.Handler(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watch(gCtx)
	})

	g.Go(func() error {
		slog.Info("preview listening", "addr", httpServer.Addr, "dir", s.cfg.Output.Dir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Handler returns the preview router: the reload event stream plus the
// exported site, with the exported 404 page for unknown paths.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Get(ReloadPath, s.hub.handleEvents)
	r.NotFound(s.serveSite)
	return r
}

func (s *Server) rebuild(ctx context.Context) (*export.Report, error) {
	return s.exporter.Run(ctx, export.Options{LiveReload: ReloadPath})
}

// serveSite maps the request path onto the output directory. Directory
// requests fall through to their index.html, and dotted segments stay
// hidden so the exporter's bookkeeping is not served.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + r.URL.Path)
	if hiddenPath(rel) {
		s.serveNotFound(w, r)
		return
	}
	target := filepath.Join(s.cfg.Output.Dir, filepath.FromSlash(rel))
	info, err := os.Stat(target)
	if err == nil && info.IsDir() {
		target = filepath.Join(target, "index.html")
		info, err = os.Stat(target)
	}
	if err != nil || info.IsDir() {
		s.serveNotFound(w, r)
		return
	}
	http.ServeFile(w, r, target)
}

func (s *Server) serveNotFound(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.cfg.Output.Dir, "404.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}

func hiddenPath(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
