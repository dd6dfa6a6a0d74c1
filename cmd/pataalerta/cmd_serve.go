package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pataalerta/internal/api"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway, notification workers and expiry sweeper",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Create a context that can be cancelled
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.workers != nil {
			a.workers.Start(ctx)
		}
		go a.expiry.Run(ctx)

		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: api.NewRouter(a.routerOptions()),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-stop:
			logger.Println("Shutdown signal received, stopping services...")
		case err := <-errCh:
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server Shutdown: %w", err)
		}

		logger.Println("Server gracefully stopped")
		return nil
	},
}
