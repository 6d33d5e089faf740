// Package mimetype maps file names to a media type and an optional content
// encoding.
package mimetype

import (
	"mime"
	"path"
	"strings"
)

const OctetStream = "application/octet-stream"

// Resolver returns the media type and content encoding for name. An empty
// string means none.
type Resolver interface {
	Resolve(name string) (mimeType, encoding string)
}

var suffixAliases = map[string]string{
	".svgz": ".svg.gz",
	".tgz":  ".tar.gz",
	".taz":  ".tar.gz",
	".tz":   ".tar.gz",
	".tbz2": ".tar.bz2",
	".txz":  ".tar.xz",
}

var encodings = map[string]string{
	".gz":  "gzip",
	".Z":   "compress",
	".bz2": "bzip2",
	".xz":  "xz",
	".br":  "br",
}

// consulted before mime.TypeByExtension so results don't depend on the host's
// mime.types
var builtin = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".wasm": "application/wasm",
	".txt":  "text/plain",
	".tar":  "application/x-tar",
}

// Default infers types from file extensions. A trailing compression extension
// becomes the encoding and the extension before it decides the type.
type Default struct {
	// Fallback is returned when no type is known. Empty leaves the type unset.
	Fallback string
}

func NewDefault() Default {
	return Default{Fallback: OctetStream}
}

func (d Default) Resolve(name string) (string, string) {
	base, ext := splitExt(name)
	for {
		alias, ok := suffixAliases[strings.ToLower(ext)]
		if !ok {
			break
		}
		base, ext = splitExt(base + alias)
	}

	var encoding string
	if enc, ok := encodings[ext]; ok {
		encoding = enc
		base, ext = splitExt(base)
	} else if enc, ok := encodings[strings.ToLower(ext)]; ok {
		encoding = enc
		base, ext = splitExt(base)
	}

	if t := lookup(ext); t != "" {
		return t, encoding
	}
	return d.Fallback, encoding
}

func lookup(ext string) string {
	if ext == "" {
		return ""
	}
	if t, ok := builtin[strings.ToLower(ext)]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	return name[:len(name)-len(ext)], ext
}
