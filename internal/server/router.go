package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finanfun/nocache/internal/httpx"
	mw2 "github.com/finanfun/nocache/internal/mw"
	"github.com/finanfun/nocache/internal/version"
)

type Options struct {
	EnableCORS bool
	// Clock stamps Last-Modified. Defaults to time.Now.
	Clock func() time.Time
}

type Deps struct {
	// Files serves everything that isn't an internal route.
	Files http.Handler
}

func BuildRouter(d Deps, opts Options, mw ...func(http.Handler) http.Handler) http.Handler {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()
	// outermost, so recovered panics and chi's own 404/405 are covered too
	r.Use(mw2.NoStoreWithClock(clock))

	// baseline
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if opts.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}))
	}
	for _, m := range mw {
		r.Use(m)
	}

	r.Use(mw2.Trace())
	r.Use(mw2.Logger(mw2.LogOpts{
		SkipPaths:     []string{"/healthz"},
		RedactHeaders: []string{"Authorization"},
	}))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, HEAD")
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", healthCheckHandler)
	r.Head("/healthz", healthCheckHandler)

	if d.Files != nil {
		r.Method(http.MethodGet, "/*", d.Files)
		r.Method(http.MethodHead, "/*", d.Files)
	}

	return r
}

type health struct {
	Status string `json:"status"`
	version.Info
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, health{Status: "healthy", Info: version.Get()})
}
