package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *App) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistance HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.LogLevel != nil && a.LogLevel.Level() > slog.LevelInfo {
				a.LogLevel.Set(slog.LevelInfo)
			}
			if port == "" {
				port = a.Config.Port
			}

			ln, err := net.Listen("tcp", ":"+port)
			if err != nil {
				return fmt.Errorf("listening on port %s: %w", port, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, ln)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default: NUUDLE_PORT or 8080)")

	return cmd
}

// serve runs the API on ln until ctx is done, then drains in-flight
// requests.
func serve(ctx context.Context, a *App, ln net.Listener) error {
	srv := &http.Server{
		Handler:     a.Handler(),
		ReadTimeout: 30 * time.Second,
		// Summaries are allowed a 60s provider call.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", ln.Addr().String(), "dev", a.Config.IsDevelopment())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shut down: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}
