package links

import (
	"path"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindVideo
)

// Types classifies embed targets by file extension and supplies the MIME
// type for video sources. The table is injected into the rewriter so hosts
// can extend classification without touching the resolution logic.
type Types struct {
	kinds map[string]Kind
	mime  map[string]string
}

// DefaultTypes covers the formats browsers render natively.
func DefaultTypes() *Types {
	return &Types{
		kinds: map[string]Kind{
			"png":  KindImage,
			"jpg":  KindImage,
			"jpeg": KindImage,
			"gif":  KindImage,
			"svg":  KindImage,
			"webp": KindImage,
			"avif": KindImage,
			"mp4":  KindVideo,
			"webm": KindVideo,
			"mov":  KindVideo,
			"m4v":  KindVideo,
			"ogv":  KindVideo,
			"ogg":  KindVideo,
		},
		mime: map[string]string{
			"mp4":  "video/mp4",
			"m4v":  "video/mp4",
			"webm": "video/webm",
			"mov":  "video/quicktime",
			"ogv":  "video/ogg",
			"ogg":  "video/ogg",
		},
	}
}

// Kind classifies a bare lowercase extension.
func (t *Types) Kind(ext string) Kind {
	return t.kinds[ext]
}

// MIME returns the source type for a video extension. Extensions outside
// the table report false and the emitted markup omits the type attribute.
func (t *Types) MIME(ext string) (string, bool) {
	m, ok := t.mime[ext]
	return m, ok
}

// Icon picks the placeholder glyph for a target that could not be embedded.
func (t *Types) Icon(ext string) string {
	switch t.kinds[ext] {
	case KindImage:
		return "\U0001F5BC"
	case KindVideo:
		return "\U0001F39E"
	default:
		return "\U0001F4C4"
	}
}

// extOf extracts the lowercase extension of p without the dot.
func extOf(p string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}
