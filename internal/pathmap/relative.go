package pathmap

import "strings"

// Relative computes the lexical relative path from one slugged output file
// to another. Both arguments are /-separated; the final segment of from is
// its filename and is dropped before comparison. No filesystem access and
// no normalization: inputs are expected to be clean slugged paths.
func Relative(from, to string) string {
	fromParts := strings.Split(from, "/")
	fromDirs := fromParts[:len(fromParts)-1]
	toParts := strings.Split(to, "/")
	toDirs := toParts[:len(toParts)-1]

	common := 0
	for common < len(fromDirs) && common < len(toDirs) && fromDirs[common] == toDirs[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(fromDirs); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(toParts[common:], "/"))

	if b.Len() == 0 {
		return "./"
	}
	return b.String()
}
