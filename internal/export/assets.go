package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"vaultpub/internal/cache"
	"vaultpub/internal/links"
	storage "vaultpub/internal/storage/fs"
	"vaultpub/internal/vault"
)

// copyMedia copies the media referenced by one document into the flat
// assets directory. The first document to claim a basename wins for the
// run; a later claim by a different file is logged and ignored.
func (e *Exporter) copyMedia(ctx context.Context, v *vault.Vault, rw *links.Rewriter, db *cache.Cache, doc, body string, seen map[string]string, opts Options, report *Report) error {
	for _, resolved := range rw.MediaRefs(doc, body) {
		name := path.Base(resolved)
		if prev, ok := seen[name]; ok {
			if prev != resolved {
				slog.Warn("asset basename collision", "name", name, "kept", prev, "ignored", resolved)
			}
			continue
		}
		seen[name] = resolved
		if opts.DryRun {
			continue
		}

		data, err := v.ReadBinary(resolved)
		if err != nil {
			return err
		}
		fp := cache.Fingerprint(data)
		if !opts.Force {
			if cached, ok, err := db.Asset(ctx, name); err != nil {
				return err
			} else if ok && cached == fp {
				continue
			}
		}

		dest := filepath.Join(e.cfg.Output.Dir, "assets", name)
		if err := storage.WriteFileAtomic(dest, data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", name, err)
		}
		if err := db.PutAsset(ctx, name, fp); err != nil {
			return err
		}
		report.Assets++
		slog.Debug("asset written", "name", name, "from", resolved)
	}
	return nil
}

// prune removes outputs whose source left the vault since the last run.
func (e *Exporter) prune(ctx context.Context, db *cache.Cache, seenPages map[string]struct{}, seenAssets map[string]string, report *Report) error {
	pages, err := db.Pages(ctx)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if _, ok := seenPages[p.Path]; ok {
			continue
		}
		dest := filepath.Join(e.cfg.Output.Dir, filepath.FromSlash(p.Output))
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p.Output, err)
		}
		if err := db.DeletePage(ctx, p.Path); err != nil {
			return err
		}
		report.Removed++
		slog.Info("stale page removed", "doc", p.Path, "out", p.Output)
	}

	assets, err := db.Assets(ctx)
	if err != nil {
		return err
	}
	for _, a := range assets {
		if _, ok := seenAssets[a.Name]; ok {
			continue
		}
		dest := filepath.Join(e.cfg.Output.Dir, "assets", a.Name)
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove asset %s: %w", a.Name, err)
		}
		if err := db.DeleteAsset(ctx, a.Name); err != nil {
			return err
		}
		report.Removed++
		slog.Info("stale asset removed", "name", a.Name)
	}

	return pruneEmptyDirs(e.cfg.Output.Dir, true)
}

// pruneEmptyDirs deletes directories left empty by pruning. Bookkeeping
// and git directories at the output root are never touched.
func pruneEmptyDirs(dir string, isRoot bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		name := ent.Name()
		if isRoot && (name == ".vaultpub" || name == ".git") {
			continue
		}
		sub := filepath.Join(dir, name)
		if err := pruneEmptyDirs(sub, false); err != nil {
			return err
		}
		rest, err := os.ReadDir(sub)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			if err := os.Remove(sub); err != nil {
				return err
			}
		}
	}
	return nil
}
