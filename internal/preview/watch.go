package preview

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 250 * time.Millisecond

// watch runs an fsnotify watcher over the vault and re-exports after a
// short quiet period, so editor save bursts collapse into one rebuild.
// Pages are told to reload only when a rebuild changed the output.
func (s *Server) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	outDir, err := filepath.Abs(s.cfg.Output.Dir)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(s.cfg.Vault.Path)
	if err != nil {
		return err
	}
	if err := addDirsRecursive(w, root, outDir); err != nil {
		return err
	}
	slog.Info("watching vault", "root", root)

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(debounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			return nil

		case <-rebuildCh:
			report, err := s.rebuild(ctx)
			if err != nil {
				slog.Error("rebuild failed", "err", err)
				continue
			}
			if report.Written+report.Assets+report.Removed > 0 {
				s.hub.broadcast([]byte(report.RunID))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if skipPath(ev.Name, outDir) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, outDir); addErr != nil {
						slog.Warn("watch new dir", "path", ev.Name, "err", addErr)
					}
				}
			}
			slog.Debug("vault changed", "path", ev.Name, "op", ev.Op.String())
			scheduleRebuild()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", watchErr)
		}
	}
}

// skipPath filters dotted names and the output directory, which may sit
// inside the vault; an export must not retrigger itself.
func skipPath(name, outDir string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return true
	}
	if abs == outDir || strings.HasPrefix(abs, outDir+string(filepath.Separator)) {
		return true
	}
	return strings.HasPrefix(filepath.Base(abs), ".")
}

// addDirsRecursive adds root and every subdirectory to the watcher,
// skipping hidden directories and the output tree.
func addDirsRecursive(w *fsnotify.Watcher, root, outDir string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && skipPath(p, outDir) {
			return fs.SkipDir
		}
		return w.Add(p)
	})
}
