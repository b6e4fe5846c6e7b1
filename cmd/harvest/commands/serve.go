package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/harvest/api"
)

var shutdownGrace time.Duration

func init() {
	serveCmd.Flags().DurationVar(&shutdownGrace, "grace", 5*time.Second, "How long in-flight requests get to finish on shutdown.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the status page and the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		slog.Info("harvest starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
			"mode", cfg.Server.Mode,
			"db", cfg.Store.Path,
		)

		a, err := wire(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		deps := api.Deps{
			Store:     a.store,
			Runner:    a.runner,
			Tracker:   a.tracker,
			Engines:   a.engines,
			StartTime: time.Now(),
		}
		if a.scraper != nil {
			deps.Pool = a.scraper
		}

		// Background runs stop with the process, not with the request.
		runCtx, cancelRuns := context.WithCancel(context.WithoutCancel(ctx))
		defer cancelRuns()

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewRouter(runCtx, cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		select {
		case err := <-errc:
			return fmt.Errorf("http server: %w", err)
		case <-ctx.Done():
			slog.Info("shutdown signal received")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		if st := a.tracker.Snapshot(); st.Running() {
			slog.Warn("cancelling active run", "id", st.ID, "kind", st.Kind, "processed", st.Processed)
		}
		cancelRuns()
		slog.Info("harvest stopped")
		return nil
	},
}
