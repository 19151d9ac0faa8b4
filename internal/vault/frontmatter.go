package vault

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Meta is the export-relevant frontmatter of a document. Publish is nil
// when the key is absent, so the filter can distinguish "unset" from
// "false".
type Meta struct {
	Title   string `yaml:"title"`
	Publish *bool  `yaml:"publish"`
}

// SplitFrontmatter separates a leading --- delimited YAML block from the
// body. Documents without a block return a zero Meta and the input
// unchanged. A block that is not valid YAML fails the document; half
// parsed metadata must not reach the output.
func SplitFrontmatter(content string) (Meta, string, error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return Meta{}, content, nil
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return Meta{}, content, nil
	}

	var meta Meta
	raw := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return Meta{}, "", fmt.Errorf("frontmatter: %w", err)
	}
	return meta, strings.Join(lines[end+1:], "\n"), nil
}

// DocTitle picks the page title: frontmatter first, then the first ATX
// heading outside code fences, then the filename stem.
func DocTitle(meta Meta, body, docPath string) string {
	if meta.Title != "" {
		return meta.Title
	}
	fence := false
	for _, line := range strings.Split(body, "\n") {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "```") || strings.HasPrefix(trim, "~~~") {
			fence = !fence
			continue
		}
		if fence {
			continue
		}
		if t, ok := strings.CutPrefix(trim, "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return strings.TrimSuffix(path.Base(docPath), ".md")
}
