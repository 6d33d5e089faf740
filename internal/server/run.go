package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const startedLayout = "2006-01-02 15:04:05"

type RunConfig struct {
	Host    string
	Port    int
	Name    string
	Handler http.Handler

	// Out receives the startup banner. Defaults to os.Stdout.
	Out             io.Writer
	ShutdownTimeout time.Duration
}

// Run binds host:port and serves until ctx is cancelled. Bind failures are
// returned before anything is printed.
func Run(ctx context.Context, cfg RunConfig) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return Serve(ctx, ln, cfg)
}

// Serve is Run on an existing listener. It takes ownership of ln.
func Serve(ctx context.Context, ln net.Listener, cfg RunConfig) error {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	srv := &http.Server{
		Handler:           cfg.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	port := cfg.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	printBanner(out, cfg.Name, port, time.Now())
	slog.Debug("listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func printBanner(w io.Writer, name string, port int, at time.Time) {
	fmt.Fprintf(w, "🚀 %s running on port %d\n", name, port)
	fmt.Fprintf(w, "📅 Server started at %s\n", at.Format(startedLayout))
	fmt.Fprintln(w, "🔄 All files served with no-cache headers")
}
