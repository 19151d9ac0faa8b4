package links

import "strings"

// rewriteOutsideCode applies fn to every stretch of markdown that is not
// code: fenced blocks pass through untouched, and inline code spans within
// a line are preserved verbatim. Line structure is kept exactly, so the
// output differs from the input only where fn rewrote something.
func rewriteOutsideCode(markdown string, fn func(segment string) (string, error)) (string, error) {
	lines := strings.Split(markdown, "\n")
	fence := ""
	for i, line := range lines {
		trim := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trim, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trim, "```") || strings.HasPrefix(trim, "~~~") {
			fence = trim[:3]
			continue
		}
		out, err := rewriteLine(line, fn)
		if err != nil {
			return "", err
		}
		lines[i] = out
	}
	return strings.Join(lines, "\n"), nil
}

// rewriteLine applies fn around inline code spans. Backtick runs of any
// length delimit a span; an unmatched run leaves the rest of the line as
// ordinary text.
func rewriteLine(line string, fn func(string) (string, error)) (string, error) {
	if !strings.Contains(line, "`") {
		return fn(line)
	}
	var out strings.Builder
	rest := line
	for {
		open := strings.Index(rest, "`")
		if open == -1 {
			seg, err := fn(rest)
			if err != nil {
				return "", err
			}
			out.WriteString(seg)
			return out.String(), nil
		}
		run := 1
		for open+run < len(rest) && rest[open+run] == '`' {
			run++
		}
		delim := rest[open : open+run]
		close := strings.Index(rest[open+run:], delim)
		if close == -1 {
			seg, err := fn(rest)
			if err != nil {
				return "", err
			}
			out.WriteString(seg)
			return out.String(), nil
		}
		seg, err := fn(rest[:open])
		if err != nil {
			return "", err
		}
		out.WriteString(seg)
		end := open + run + close + run
		out.WriteString(rest[open:end])
		rest = rest[end:]
	}
}
