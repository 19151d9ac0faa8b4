package vault

import (
	"testing"

	"vaultpub/internal/testutil"
)

func TestOpenListsDocuments(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"Welcome.md":          "# Welcome",
		"Notes/First.md":      "first",
		"Notes/pic.png":       "\x89PNG",
		".obsidian/app.json":  "{}",
		".hidden.md":          "nope",
		"Templates/Daily.md":  "template",
		"Notes/.trash/old.md": "gone",
	})

	v, err := Open(root, Options{Exclude: []string{"Templates/*"}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	docs := v.Documents()
	want := []string{"Notes/First.md", "Welcome.md"}
	if len(docs) != len(want) {
		t.Fatalf("docs = %v, want %v", docs, want)
	}
	for i := range want {
		if docs[i] != want[i] {
			t.Fatalf("docs[%d] = %q, want %q", i, docs[i], want[i])
		}
	}

	if !v.Exists("Notes/pic.png") {
		t.Fatal("media files must be indexed")
	}
	if v.Exists(".obsidian/app.json") {
		t.Fatal("dot directories must be skipped")
	}
	if !v.Exists("Templates/Daily.md") {
		t.Fatal("excluded documents stay resolvable")
	}
}

func TestOpenPublishFilter(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{
		"Public.md":  "---\npublish: true\n---\nbody",
		"Private.md": "---\npublish: false\n---\nbody",
		"Unset.md":   "body",
	})

	v, err := Open(root, Options{RequirePublish: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	docs := v.Documents()
	if len(docs) != 1 || docs[0] != "Public.md" {
		t.Fatalf("docs = %v, want [Public.md]", docs)
	}
}

func TestOpenRejectsBadGlob(t *testing.T) {
	root := testutil.WriteVault(t, nil)
	if _, err := Open(root, Options{Exclude: []string{"bad[0-9]"}}); err == nil {
		t.Fatal("expected error for character class pattern")
	}
}

func TestReadGuardsTraversal(t *testing.T) {
	root := testutil.WriteVault(t, map[string]string{"a.md": "content"})
	v, err := Open(root, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if got, err := v.ReadText("a.md"); err != nil || got != "content" {
		t.Fatalf("ReadText = %q, %v", got, err)
	}
	if _, err := v.ReadText("../outside.md"); err == nil {
		t.Fatal("expected error for escaping path")
	}
	if _, err := v.ReadBinary("/etc/passwd"); err == nil {
		t.Fatal("expected error for absolute path")
	}
}

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"Templates/*", "Templates/Daily.md", true},
		{"Templates/*", "Templates/sub/Deep.md", true},
		{"Templates/*", "Other/Daily.md", false},
		{"*private*", "dir/private-notes/x.md", true},
		{"?.md", "a.md", true},
		{"?.md", "ab.md", false},
	}
	for _, c := range cases {
		if got := globMatch(c.pattern, c.s); got != c.want {
			t.Fatalf("globMatch(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}
