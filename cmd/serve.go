package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/config"
	"github.com/lehigh-university-libraries/cardscan/internal/extraction"
	"github.com/lehigh-university-libraries/cardscan/internal/handlers"
	"github.com/lehigh-university-libraries/cardscan/internal/throttle"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the card scanning API server",
		Long: `Starts the Cardscan API on the specified port.

POST /api/scan extracts a card from a base64 image, and POST /api/sync archives
the image and upserts the card into the spreadsheet keyed by email address.
Scans share a process-wide cooldown (SCAN_COOLDOWN, default 30s).`,
		Example: `  # Start server on default port 8888
  cardscan serve

  # Start server on custom port with OpenAI
  VISION_PROVIDER=openai cardscan serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}
			chain, err := newArchiveChain(ctx, cfg)
			if err != nil {
				return err
			}
			cards, err := newLedger(ctx, cfg)
			if err != nil {
				return err
			}

			handler := handlers.New(
				extraction.NewService(provider, cfg.Model),
				chain,
				cards,
				throttle.New(cfg.Cooldown),
			)

			if port == "" {
				port = os.Getenv("PORT")
			}
			if port == "" {
				port = "8888"
			}
			addr := ":" + port
			server := &http.Server{
				Addr: addr,
				Handler: handler.Routes(handlers.RouterOptions{
					RateLimit:      cfg.APIRateLimit,
					AllowedOrigins: cfg.AllowedOrigins,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Cardscan API available", "addr", addr, "provider", cfg.VisionProvider, "model", cfg.Model, "cooldown", cfg.Cooldown)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
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

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 8888)")

	return cmd
}
