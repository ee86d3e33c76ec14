// cmd/copilot/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supplychain-copilot/internal/api"
	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/pipeline"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the copilot over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, cfg, 10)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := &http.Server{
				Addr:         cfg.Server.Address,
				Handler:      api.NewHandler(a.pipeline, pipeline.NewErrorClassifier(), a.checks, a.log),
				ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
				WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down http server", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
