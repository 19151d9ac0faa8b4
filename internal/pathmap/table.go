// Package pathmap holds the vault-path to slugged-path mapping for one
// export run and the relative-path arithmetic between slugged outputs.
package pathmap

import (
	"log/slog"

	"vaultpub/internal/slug"
)

// Table maps vault paths to slugged export paths and back. Build it once
// from the final document list, then treat it as read-only: consumers get
// it as an explicit snapshot, it is never persisted, and a run never
// mutates it after the freeze.
type Table struct {
	slugs    map[string]string
	vaultFor map[string]string
	exported map[string]struct{}
}

// New builds a table from the list of exported document paths.
func New(paths []string) *Table {
	t := &Table{}
	t.Build(paths)
	return t
}

// Build replaces all table state with mappings for the given paths. Two
// paths collapsing to the same slug is tolerated: the later path wins the
// inverse mapping and the collision is logged.
func (t *Table) Build(paths []string) {
	t.slugs = make(map[string]string, len(paths))
	t.vaultFor = make(map[string]string, len(paths))
	t.exported = make(map[string]struct{}, len(paths))
	for _, p := range paths {
		s := slug.Path(p)
		if prev, ok := t.vaultFor[s]; ok && prev != p {
			slog.Warn("slug collision", "slug", s, "kept", p, "shadowed", prev)
		}
		t.slugs[p] = s
		t.vaultFor[s] = p
		t.exported[p] = struct{}{}
	}
}

// IsExported reports whether the vault path is part of this run.
func (t *Table) IsExported(path string) bool {
	_, ok := t.exported[path]
	return ok
}

// SlugFor returns the stored slug for a known path. Unknown paths get an
// ad-hoc slug from the same transformation, so callers can slug paths that
// are not part of the export without special-casing.
func (t *Table) SlugFor(path string) string {
	if s, ok := t.slugs[path]; ok {
		return s
	}
	return slug.Path(path)
}

// VaultPathOf is the inverse lookup from a slugged path.
func (t *Table) VaultPathOf(slugged string) (string, bool) {
	p, ok := t.vaultFor[slugged]
	return p, ok
}

// Paths returns the exported vault paths in no particular order.
func (t *Table) Paths() []string {
	out := make([]string, 0, len(t.exported))
	for p := range t.exported {
		out = append(out, p)
	}
	return out
}

// Len reports the number of exported documents.
func (t *Table) Len() int { return len(t.exported) }
