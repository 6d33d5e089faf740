package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/finanfun/nocache/internal/mimetype"
	"github.com/finanfun/nocache/internal/static"
	"github.com/finanfun/nocache/internal/trace"
	"github.com/finanfun/nocache/internal/version"
)

var wantNoCache = map[string]string{
	"Cache-Control": "no-store, no-cache, must-revalidate, max-age=0",
	"Pragma":        "no-cache",
	"Expires":       "Thu, 01 Jan 1970 00:00:00 GMT",
}

func cacheHeaders(h http.Header) map[string]string {
	return map[string]string{
		"Cache-Control": h.Get("Cache-Control"),
		"Pragma":        h.Get("Pragma"),
		"Expires":       h.Get("Expires"),
	}
}

func site(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, body := range map[string]string{
		"/index.html":             "<!doctype html><title>FinanFun</title>",
		"/css/style.css":          "body{margin:0}",
		"/js/app.js":              "console.log('hi')",
		"/js/app.js.gz":           "\x1f\x8b",
		"/images/logo.png":        "\x89PNG",
		"/downloads/data.nope123": "??",
	} {
		if err := afero.WriteFile(fsys, name, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return fsys
}

func newRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	return BuildRouter(Deps{Files: static.New(site(t), mimetype.NewNoCache(mimetype.NewDefault()))}, opts)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestEveryResponseCarriesNoCacheHeaders(t *testing.T) {
	h := newRouter(t, Options{})

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/index.html", http.StatusOK},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodHead, "/css/style.css", http.StatusOK},
		{http.MethodGet, "/images/logo.png", http.StatusOK},
		{http.MethodGet, "/nope.html", http.StatusNotFound},
		{http.MethodGet, "/css", http.StatusMovedPermanently},
		{http.MethodGet, "/js/", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/healthz", http.StatusOK},
		{http.MethodPost, "/index.html", http.StatusMethodNotAllowed},
	}
	for _, c := range cases {
		t.Run(c.method+" "+c.path, func(t *testing.T) {
			start := time.Now().Add(-2 * time.Second)
			rr := do(h, c.method, c.path)
			end := time.Now()

			if rr.Code != c.status {
				t.Fatalf("status = %d, want %d", rr.Code, c.status)
			}
			if diff := cmp.Diff(wantNoCache, cacheHeaders(rr.Header())); diff != "" {
				t.Fatalf("headers mismatch (-want +got):\n%s", diff)
			}
			lm, err := http.ParseTime(rr.Header().Get("Last-Modified"))
			if err != nil {
				t.Fatalf("Last-Modified: %v", err)
			}
			if lm.Before(start) || lm.After(end) {
				t.Fatalf("Last-Modified %v outside [%v, %v]", lm, start, end)
			}
			if _, err := uuid.Parse(rr.Header().Get(trace.Header)); err != nil {
				t.Fatalf("%s = %q, want a uuid: %v", trace.Header, rr.Header().Get(trace.Header), err)
			}
		})
	}
}

func TestRepeatedRequestsGetFreshLastModified(t *testing.T) {
	at := time.Date(2025, 6, 19, 12, 0, 0, 0, time.UTC)
	h := newRouter(t, Options{Clock: func() time.Time { return at }})

	first := do(h, http.MethodGet, "/index.html")
	at = at.Add(time.Second)
	second := do(h, http.MethodGet, "/index.html")

	lm1, err := http.ParseTime(first.Header().Get("Last-Modified"))
	if err != nil {
		t.Fatal(err)
	}
	lm2, err := http.ParseTime(second.Header().Get("Last-Modified"))
	if err != nil {
		t.Fatal(err)
	}
	if d := lm2.Sub(lm1); d != time.Second {
		t.Fatalf("Last-Modified delta = %v, want 1s", d)
	}
	if diff := cmp.Diff(cacheHeaders(first.Header()), cacheHeaders(second.Header())); diff != "" {
		t.Fatalf("static headers changed between requests:\n%s", diff)
	}
}

func TestContentTypes(t *testing.T) {
	h := newRouter(t, Options{})

	cases := map[string][2]string{
		"/index.html":             {"text/html", ""},
		"/js/app.js.gz":           {"application/javascript", ""},
		"/images/logo.png":        {"image/png", ""},
		"/downloads/data.nope123": {mimetype.OctetStream, ""},
	}
	for p, want := range cases {
		rr := do(h, http.MethodGet, p)
		got := [2]string{rr.Header().Get("Content-Type"), rr.Header().Get("Content-Encoding")}
		if got != want {
			t.Errorf("%s: (type, encoding) = %q, want %q", p, got, want)
		}
	}
}

func TestConcurrentRequests(t *testing.T) {
	h := newRouter(t, Options{})

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now().Add(-2 * time.Second)
			rr := do(h, http.MethodGet, "/css/style.css")
			lm, err := http.ParseTime(rr.Header().Get("Last-Modified"))
			if err != nil || lm.Before(start) || lm.After(time.Now()) {
				errs <- rr.Header().Get("Last-Modified")
			}
			if rr.Header().Get("Cache-Control") != wantNoCache["Cache-Control"] {
				errs <- "Cache-Control=" + rr.Header().Get("Cache-Control")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("bad response header: %s", e)
	}
}

func TestHealthz(t *testing.T) {
	rr := do(newRouter(t, Options{}), http.MethodGet, "/healthz")

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		"status":    "healthy",
		"version":   version.Version,
		"gitCommit": version.GitCommit,
		"buildDate": version.BuildDate,
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("healthz body mismatch (-want +got):\n%s", diff)
	}

	head := do(newRouter(t, Options{}), http.MethodHead, "/healthz")
	if head.Code != http.StatusOK {
		t.Fatalf("HEAD /healthz = %d, want 200", head.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := do(newRouter(t, Options{}), http.MethodDelete, "/index.html")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("code = %d, want 405", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "GET, HEAD" {
		t.Fatalf("Allow = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(t, Options{EnableCORS: true})

	req := httptest.NewRequest(http.MethodOptions, "/index.html", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != wantNoCache["Cache-Control"] {
		t.Fatalf("Cache-Control = %q on preflight", got)
	}
}

func TestPanicsAreRecoveredWithHeaders(t *testing.T) {
	boom := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	}
	h := BuildRouter(Deps{}, Options{}, boom)

	rr := do(h, http.MethodGet, "/anything")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rr.Code)
	}
	if diff := cmp.Diff(wantNoCache, cacheHeaders(rr.Header())); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}
