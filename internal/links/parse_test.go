package links

import "testing"

func TestParseLink(t *testing.T) {
	cases := []struct {
		inner   string
		target  string
		subpath string
		display string
	}{
		{"Note", "Note", "", "Note"},
		{"Note|alias", "Note", "", "alias"},
		{"Note#Heading", "Note", "Heading", "Note"},
		{"Note#Heading|alias", "Note", "Heading", "alias"},
		{"dir/Note.md", "dir/Note.md", "", "dir/Note.md"},
		{"#Heading", "", "Heading", "Heading"},
		{"Note|a|b", "Note", "", "a|b"},
		{"Note#One#Two", "Note", "One#Two", "Note"},
		{" Note | alias ", "Note", "", "alias"},
	}

	for _, c := range cases {
		l := parseLink(c.inner)
		if l.Target != c.target || l.Subpath != c.subpath || l.Display != c.display {
			t.Fatalf("parseLink(%q) = %+v, want target=%q subpath=%q display=%q",
				c.inner, l, c.target, c.subpath, c.display)
		}
	}
}

func TestParseEmbed(t *testing.T) {
	cases := []struct {
		inner   string
		target  string
		caption string
		width   int
	}{
		{"pic.png", "pic.png", "", 0},
		{"pic.png|400", "pic.png", "", 400},
		{"pic.png|A caption", "pic.png", "A caption", 0},
		{"pic.png|A caption|400", "pic.png", "A caption", 400},
		{"pic.png|400|A caption", "pic.png", "A caption", 400},
		{"pic.png|first|second", "pic.png", "second", 0},
		{"pic.png|100|200", "pic.png", "", 200},
		{" pic.png | cap ", "pic.png", "cap", 0},
		{"pic.png|-5", "pic.png", "-5", 0},
		{"pic.png||400", "pic.png", "", 400},
	}

	for _, c := range cases {
		e := parseEmbed(c.inner)
		if e.Target != c.target || e.Caption != c.caption || e.Width != c.width {
			t.Fatalf("parseEmbed(%q) = %+v, want target=%q caption=%q width=%d",
				c.inner, e, c.target, c.caption, c.width)
		}
	}
}

func TestHTMLPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"note.md", "note.html"},
		{"dir/note.md", "dir/note.html"},
		{"no-ext", "no-ext"},
	}
	for _, c := range cases {
		if got := htmlPath(c.in); got != c.want {
			t.Fatalf("htmlPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
