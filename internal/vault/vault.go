// Package vault reads an Obsidian-style vault directory: document
// enumeration with export filters, content access behind traversal
// guards, wiki-target resolution, and frontmatter handling.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	storage "vaultpub/internal/storage/fs"
)

// Options scope which documents leave the vault.
type Options struct {
	// Exclude patterns are matched against /-separated vault paths with
	// GLOB semantics (* crosses /).
	Exclude []string
	// RequirePublish keeps only documents whose frontmatter sets
	// publish: true.
	RequirePublish bool
}

// Vault is a read-only snapshot of one vault directory. Open walks the
// tree once and indexes every file for resolution; a run never re-reads
// the tree.
type Vault struct {
	root    string
	opts    Options
	files   []string
	docs    []string
	byLower map[string]string
	byStem  map[string][]string
}

// Open walks root and builds the resolution index. Exclude patterns and
// the publish filter apply to the export list only; resolution always
// sees the whole vault so links to unexported documents degrade instead
// of silently rebinding.
func Open(root string, opts Options) (*Vault, error) {
	if err := ValidateGlobs(opts.Exclude); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", root)
	}

	v := &Vault{
		root:    root,
		opts:    opts,
		byLower: make(map[string]string),
		byStem:  make(map[string][]string),
	}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		v.index(filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan vault: %w", err)
	}
	sort.Strings(v.files)
	for _, cands := range v.byStem {
		sort.Strings(cands)
	}

	if err := v.selectDocuments(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vault) index(rel string) {
	v.files = append(v.files, rel)
	v.byLower[strings.ToLower(rel)] = rel

	base := path.Base(rel)
	lower := strings.ToLower(base)
	v.byStem[lower] = append(v.byStem[lower], rel)
	if ext := path.Ext(base); ext != "" {
		stem := strings.ToLower(strings.TrimSuffix(base, ext))
		if stem != "" {
			v.byStem[stem] = append(v.byStem[stem], rel)
		}
	}
}

func (v *Vault) selectDocuments() error {
	for _, rel := range v.files {
		if !strings.HasSuffix(strings.ToLower(rel), ".md") {
			continue
		}
		if matchAny(v.opts.Exclude, rel) {
			continue
		}
		if v.opts.RequirePublish {
			content, err := v.ReadText(rel)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			meta, _, err := SplitFrontmatter(content)
			if err != nil {
				return fmt.Errorf("parse %s: %w", rel, err)
			}
			if meta.Publish == nil || !*meta.Publish {
				continue
			}
		}
		v.docs = append(v.docs, rel)
	}
	return nil
}

// Root returns the vault directory.
func (v *Vault) Root() string { return v.root }

// Documents lists the export candidates in sorted order.
func (v *Vault) Documents() []string {
	out := make([]string, len(v.docs))
	copy(out, v.docs)
	return out
}

// Exists reports whether a vault-relative path was indexed.
func (v *Vault) Exists(rel string) bool {
	_, ok := v.byLower[strings.ToLower(rel)]
	return ok
}

// ReadText returns the content of a vault-relative path.
func (v *Vault) ReadText(rel string) (string, error) {
	data, err := v.ReadBinary(rel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadBinary returns the raw bytes of a vault-relative path.
func (v *Vault) ReadBinary(rel string) ([]byte, error) {
	full, err := storage.FilePath(v.root, rel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}
