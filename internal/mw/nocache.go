package mw

import (
	"net/http"
	"time"
)

const (
	CacheControl = "no-store, no-cache, must-revalidate, max-age=0"
	Pragma       = "no-cache"
	Expires      = "Thu, 01 Jan 1970 00:00:00 GMT"
)

// NoStore stamps cache-defeating headers on every response right before the
// header block is committed, so they win over anything the wrapped handler set.
func NoStore(next http.Handler) http.Handler {
	return NoStoreWithClock(time.Now)(next)
}

// NoStoreWithClock is NoStore with the Last-Modified clock supplied.
func NoStoreWithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nw := &noStoreWriter{ResponseWriter: w, now: now}
			next.ServeHTTP(nw, r)
			// handler wrote nothing; net/http would send an implicit 200
			if !nw.wroteHeader {
				nw.WriteHeader(http.StatusOK)
			}
		})
	}
}

// StampHeaders sets the four cache-defeating headers on h.
func StampHeaders(h http.Header, at time.Time) {
	h.Set("Cache-Control", CacheControl)
	h.Set("Pragma", Pragma)
	h.Set("Expires", Expires)
	h.Set("Last-Modified", at.UTC().Format(http.TimeFormat))
}

type noStoreWriter struct {
	http.ResponseWriter
	now         func() time.Time
	wroteHeader bool
}

func (w *noStoreWriter) WriteHeader(code int) {
	// 1xx responses don't finalize the header block
	if code >= 100 && code <= 199 && code != http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	if !w.wroteHeader {
		w.wroteHeader = true
		StampHeaders(w.Header(), w.now())
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *noStoreWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *noStoreWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *noStoreWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
