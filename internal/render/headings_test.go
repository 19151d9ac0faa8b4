package render

import (
	"strings"
	"testing"
)

func TestAssignHeadingIDs(t *testing.T) {
	in := "<h1>My Page</h1>\n<h2>Using <code>go build</code></h2>"
	out, err := AssignHeadingIDs(in)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !strings.Contains(out, `<h1 id="my-page">`) {
		t.Fatalf("h1 id missing: %q", out)
	}
	if !strings.Contains(out, `<h2 id="using-go-build">`) {
		t.Fatalf("h2 id missing: %q", out)
	}
	if strings.Contains(out, "<body") {
		t.Fatalf("wrapper tags leaked into fragment: %q", out)
	}
}

func TestAssignHeadingIDsDedup(t *testing.T) {
	in := "<h2>Setup</h2><p>one</p><h2>Setup</h2><h2>Setup</h2>"
	out, err := AssignHeadingIDs(in)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	for _, id := range []string{`id="setup"`, `id="setup-2"`, `id="setup-3"`} {
		if !strings.Contains(out, id) {
			t.Fatalf("missing %s in %q", id, out)
		}
	}
}

func TestAssignHeadingIDsKeepsExisting(t *testing.T) {
	in := `<h2 id="keep">Keep</h2><h2>Keep</h2>`
	out, err := AssignHeadingIDs(in)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !strings.Contains(out, `id="keep"`) || !strings.Contains(out, `id="keep-2"`) {
		t.Fatalf("existing id not honoured: %q", out)
	}
}

func TestAssignHeadingIDsSkipsEmpty(t *testing.T) {
	out, err := AssignHeadingIDs("<h2></h2><p>text</p>")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if strings.Contains(out, "id=") {
		t.Fatalf("empty heading got an id: %q", out)
	}
}
