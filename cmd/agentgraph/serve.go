package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with SSE step streaming",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApplication(cfgFile)
			if err != nil {
				return err
			}
			defer app.Close()

			srv := server.New(app.graph, func(o *server.Options) {
				o.Logger = app.logger
			})

			errCh := make(chan error, 1)
			go func() {
				app.logger.Info("server.starting", "addr", app.cfg.Server.Addr)
				if err := srv.Start(app.cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				app.logger.Info("server.shutdown", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}
