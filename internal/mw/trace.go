// internal/mw/trace.go
package mw

import (
	"net/http"

	"github.com/finanfun/nocache/internal/trace"
)

// Trace propagates the caller's X-Trace-ID, or mints a uuid when absent.
func Trace() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(trace.Header)
			if id == "" {
				id = trace.NewID()
			}

			// echo back on response
			w.Header().Set(trace.Header, id)
			next.ServeHTTP(w, r.WithContext(trace.With(r.Context(), id)))
		})
	}
}
