package mw

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/finanfun/nocache/internal/httpx"
	"github.com/finanfun/nocache/internal/trace"
)

type LogOpts struct {
	SkipPaths     []string
	RedactHeaders []string
}

func (o LogOpts) skip(p string) bool {
	for _, s := range o.SkipPaths {
		if p == s {
			return true
		}
	}
	return false
}

func (o LogOpts) redact(k string) bool {
	if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
		return true
	}
	for _, h := range o.RedactHeaders {
		if strings.EqualFold(k, h) {
			return true
		}
	}
	return false
}

func Logger(opts LogOpts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || opts.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := httpx.NewRecorder(w)
			next.ServeHTTP(rec, r)
			dur := time.Since(start)
			status := rec.StatusOr(http.StatusOK)

			slog.Info("req",
				"trace", trace.From(r.Context()),
				"m", r.Method,
				"path", r.URL.Path,
				"status", status,
				"ms", dur.Milliseconds(),
				"bytes", rec.Bytes,
			)

			// 404s are routine for a file server; only dig into real failures
			if status >= 400 && status != http.StatusNotFound {
				h := map[string]string{}
				for k, vv := range r.Header {
					if len(vv) == 0 {
						continue
					}
					v := vv[0]
					if opts.redact(k) {
						v = "***redacted***"
					}
					h[k] = v
				}
				slog.Warn("req_detail",
					"trace", trace.From(r.Context()),
					"m", r.Method, "path", r.URL.Path,
					"status", status, "ms", dur.Milliseconds(),
					"remote", r.RemoteAddr,
					"headers", h,
				)
			}
		})
	}
}
