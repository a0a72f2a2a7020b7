package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/franklstreet-svg/twickell/internal/metrics"
	"github.com/franklstreet-svg/twickell/internal/server"
)

func createServeCommand(gf *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP status API with Prometheus metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(gf, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if rt.rootMissing() {
				rt.printf("ROOT_MISSING %s", rt.cfg.Root)
				return nil
			}
			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return err
			}

			srv := server.NewServer(rt.cfg.Listen, "/api", rt.sup, rt.specs)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			rt.printf("listening on %s", rt.cfg.Listen)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sdCtx)
		},
	}
}
