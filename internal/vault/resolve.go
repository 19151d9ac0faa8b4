package vault

import (
	"log/slog"
	"path"
	"strings"
)

// Resolve maps a wiki link target to a vault path, relative to the
// document containing the link. Matching is case-insensitive and
// extension-tolerant: path targets are tried as written and with .md
// appended, bare names match any file whose basename or stem equals the
// target. Ambiguity is broken deterministically, preferring a candidate
// in the source's directory, then the shallowest path, then lexicographic
// order.
func (v *Vault) Resolve(linkpath, fromPath string) (string, bool) {
	target := strings.ReplaceAll(strings.TrimSpace(linkpath), "\\", "/")
	if target == "" {
		return "", false
	}

	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
		joined := path.Join(path.Dir(fromPath), target)
		if joined == ".." || strings.HasPrefix(joined, "../") {
			return "", false
		}
		return v.lookupPath(joined)
	}
	if rest, ok := strings.CutPrefix(target, "/"); ok {
		return v.lookupPath(rest)
	}
	if strings.Contains(target, "/") {
		return v.lookupPath(target)
	}
	return v.lookupName(target, fromPath)
}

func (v *Vault) lookupPath(p string) (string, bool) {
	lower := strings.ToLower(path.Clean(p))
	if hit, ok := v.byLower[lower]; ok {
		return hit, true
	}
	if hit, ok := v.byLower[lower+".md"]; ok {
		return hit, true
	}
	return "", false
}

func (v *Vault) lookupName(name, fromPath string) (string, bool) {
	cands := v.byStem[strings.ToLower(name)]
	switch len(cands) {
	case 0:
		return "", false
	case 1:
		return cands[0], true
	}

	fromDir := path.Dir(fromPath)
	best := cands[0]
	for _, c := range cands[1:] {
		if closer(c, best, fromDir) {
			best = c
		}
	}
	slog.Debug("ambiguous link target", "target", name, "candidates", len(cands), "picked", best)
	return best, true
}

// closer reports whether a beats b for a link written in fromDir.
func closer(a, b, fromDir string) bool {
	aSame := path.Dir(a) == fromDir
	bSame := path.Dir(b) == fromDir
	if aSame != bSame {
		return aSame
	}
	aDepth := strings.Count(a, "/")
	bDepth := strings.Count(b, "/")
	if aDepth != bDepth {
		return aDepth < bDepth
	}
	return a < b
}
