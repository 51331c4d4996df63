package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/antique-korea/appraiser/internal/handlers"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the appraisal API server",
		Long: `Starts the appraiser HTTP API on the specified port.

The API accepts photograph uploads, runs appraisals against the configured
vision LLM provider, and serves the appraisal history, quota and view state
to any presentation layer.`,
		Example: `  # Start server on default port 8888
  appraiser serve

  # Start server on custom port
  appraiser serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, cfg, err := newManager()
			if err != nil {
				return err
			}
			if status := manager.Status(); !status.Configured {
				slog.Warn("Provider credential not set, appraisals will fail until it is",
					"provider", status.Provider)
			}

			// Set up routes
			mux := http.NewServeMux()
			handlers.New(manager).Routes(mux)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Appraiser API available",
					"addr", addr,
					"provider", cfg.Provider,
					"model", cfg.Model,
					"daily_limit", cfg.DailyLimit)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
