package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/cardscan/internal/client"
	"github.com/lehigh-university-libraries/cardscan/internal/config"
	"github.com/lehigh-university-libraries/cardscan/internal/workflow"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newScanCmd() *cobra.Command {
	var (
		server        string
		model         string
		fallbackModel string
		downgrade     bool
		edits         []string
		sync          bool
	)

	cmd := &cobra.Command{
		Use:   "scan IMAGE",
		Short: "Scan a business card image against a running server",
		Long: `Uploads a card photo to a Cardscan server, prints the extracted card as YAML,
and optionally applies field edits and syncs the card to the spreadsheet.

When the model's daily quota is exhausted the command stops, unless --downgrade
is given, in which case it retries once with the fallback model.`,
		Example: `  # Extract and print
  cardscan scan card.jpg

  # Fix a field and sync, falling back to the lighter model on quota
  cardscan scan card.jpg --downgrade --set jobTitle="Head of Sales" --sync`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			mimeType := detectMIMEType(args[0], image)

			if fallbackModel == "" {
				if cfg, err := config.Load(); err == nil {
					fallbackModel = cfg.FallbackModel
				}
			}

			session := workflow.New(client.New(server), model, fallbackModel)

			err = session.SelectImage(ctx, image, mimeType)
			if errors.Is(err, client.ErrQuotaExceeded) && session.State() == workflow.StateAwaitingFallback {
				if !downgrade {
					_ = session.DeclineFallback()
					return fmt.Errorf("%s (rerun with --downgrade to use %s)", session.Notice(), fallbackModel)
				}
				slog.Warn("Quota exceeded, retrying with fallback model", "model", fallbackModel)
				err = session.AcceptFallback(ctx)
			}
			if err != nil {
				return err
			}

			for _, edit := range edits {
				field, value, ok := strings.Cut(edit, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, expected field=value", edit)
				}
				if err := session.Edit(strings.TrimSpace(field), value); err != nil {
					return err
				}
			}

			if sync {
				result, err := session.Sync(ctx)
				if err != nil {
					return fmt.Errorf("failed to sync card: %w", err)
				}
				slog.Info("Card synced", "action", result.Action, "row", result.Row, "image_link", result.ImageLink)
			}

			card := session.Card()
			out := yaml.NewEncoder(cmd.OutOrStdout())
			out.SetIndent(2)
			if err := out.Encode(&card); err != nil {
				return fmt.Errorf("failed to marshal YAML: %w", err)
			}
			return out.Close()
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8888", "Cardscan server URL")
	cmd.Flags().StringVar(&model, "model", "", "Vision model (default: server default)")
	cmd.Flags().StringVar(&fallbackModel, "fallback-model", "", "Lighter model offered when the quota is exhausted")
	cmd.Flags().BoolVar(&downgrade, "downgrade", false, "Retry with the fallback model on quota errors")
	cmd.Flags().StringArrayVar(&edits, "set", nil, "Edit a field before syncing (field=value, repeatable)")
	cmd.Flags().BoolVar(&sync, "sync", false, "Archive the image and upsert the card into the spreadsheet")

	return cmd
}

// detectMIMEType prefers the file extension and falls back to content sniffing
func detectMIMEType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return http.DetectContentType(data)
}
