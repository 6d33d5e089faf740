package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finanfun/nocache/internal/mimetype"
	"github.com/finanfun/nocache/internal/server"
	"github.com/finanfun/nocache/internal/static"
)

func cmdServe() *cobra.Command {
	d := defaultConfig()

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory with no-cache headers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFs, cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			setupLogging(cfg)

			st, err := os.Stat(cfg.Root)
			if err != nil {
				return fmt.Errorf("root: %w", err)
			}
			if !st.IsDir() {
				return fmt.Errorf("root %s is not a directory", cfg.Root)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			types := mimetype.NewNoCache(mimetype.Default{Fallback: cfg.FallbackType})
			files, err := static.NewDir(cfg.Root, types)
			if err != nil {
				return err
			}
			h := server.BuildRouter(server.Deps{Files: files}, server.Options{EnableCORS: cfg.CORS})

			return server.Run(ctx, server.RunConfig{
				Host:    cfg.Host,
				Port:    cfg.Port,
				Name:    cfg.Name,
				Handler: h,
				Out:     cmd.OutOrStdout(),
			})
		},
	}
	c.Flags().StringVar(&d.Host, "host", d.Host, "interface to bind")
	c.Flags().IntVarP(&d.Port, "port", "p", d.Port, "port to listen on")
	c.Flags().StringVarP(&d.Root, "root", "r", d.Root, "directory to serve")
	c.Flags().BoolVar(&d.CORS, "cors", d.CORS, "send permissive CORS headers")
	c.Flags().StringVar(&d.FallbackType, "fallback-type", d.FallbackType, "type for unknown extensions; empty sniffs content")
	c.Flags().StringVar(&d.Name, "name", d.Name, "name shown in the startup banner")
	return c
}
