// Package static serves a file tree with types chosen by a mimetype.Resolver.
//
// File bodies go through http.ServeContent with a zero modification time, so
// no file-derived Last-Modified is emitted and conditional requests are never
// answered with 304. Directory listings are delegated to http.FileServer.
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/finanfun/nocache/internal/mimetype"
	"github.com/finanfun/nocache/internal/trace"
)

var indexNames = []string{"index.html", "index.htm"}

// only these are registered HTTP content codings
var httpCodings = map[string]bool{
	"gzip":     true,
	"compress": true,
	"br":       true,
}

var conditionalHeaders = []string{
	"If-Modified-Since",
	"If-Unmodified-Since",
	"If-None-Match",
	"If-Match",
	"If-Range",
}

type Handler struct {
	fs       afero.Fs
	types    mimetype.Resolver
	listings http.Handler
}

// New serves files from fsys. A nil resolver uses mimetype.NewNoCache over
// the default inference.
func New(fsys afero.Fs, types mimetype.Resolver) *Handler {
	if types == nil {
		types = mimetype.NewNoCache(mimetype.NewDefault())
	}
	return &Handler{
		fs:       fsys,
		types:    types,
		listings: http.FileServer(afero.NewHttpFs(fsys)),
	}
}

// NewDir serves the OS directory root. Relative roots are resolved against
// the working directory; BasePathFs rejects every file under a relative base.
func NewDir(root string, types mimetype.Resolver) (*Handler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), abs), types), nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
	}
	name := path.Clean(upath)

	fi, err := h.fs.Stat(name)
	if err != nil {
		h.fail(w, r, name, err)
		return
	}

	if fi.IsDir() {
		if !strings.HasSuffix(upath, "/") {
			redirectSlash(w, r)
			return
		}
		for _, idx := range indexNames {
			p := path.Join(name, idx)
			if ifi, err := h.fs.Stat(p); err == nil && ifi.Mode().IsRegular() {
				h.serveFile(w, r, p, ifi)
				return
			}
		}
		h.listings.ServeHTTP(w, withoutConditionals(r))
		return
	}

	// a file never has children
	if strings.HasSuffix(upath, "/") {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}

	h.serveFile(w, r, name, fi)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string, fi os.FileInfo) {
	f, err := h.fs.Open(name)
	if err != nil {
		h.fail(w, r, name, err)
		return
	}
	defer f.Close()

	typ, enc := h.types.Resolve(name)
	if typ != "" {
		w.Header().Set("Content-Type", typ)
	}
	if httpCodings[enc] {
		w.Header().Set("Content-Encoding", enc)
	}

	http.ServeContent(w, r, fi.Name(), time.Time{}, f)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "404 page not found", http.StatusNotFound)
	case errors.Is(err, fs.ErrPermission):
		slog.Warn("static_forbidden", "trace", trace.From(r.Context()), "path", name, "err", err)
		http.Error(w, "403 Forbidden", http.StatusForbidden)
	default:
		slog.Error("static_error", "trace", trace.From(r.Context()), "path", name, "err", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	}
}

func redirectSlash(w http.ResponseWriter, r *http.Request) {
	target := path.Base(r.URL.Path) + "/"
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusMovedPermanently)
}

func withoutConditionals(r *http.Request) *http.Request {
	r2 := r.Clone(r.Context())
	for _, k := range conditionalHeaders {
		r2.Header.Del(k)
	}
	return r2
}
