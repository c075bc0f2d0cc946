package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/cardscan/internal/archive"
	"github.com/lehigh-university-libraries/cardscan/internal/config"
	"github.com/lehigh-university-libraries/cardscan/internal/gcp"
	"github.com/lehigh-university-libraries/cardscan/internal/gemini"
	"github.com/lehigh-university-libraries/cardscan/internal/ledger"
	"github.com/lehigh-university-libraries/cardscan/internal/ollama"
	"github.com/lehigh-university-libraries/cardscan/internal/openai"
	"github.com/lehigh-university-libraries/cardscan/internal/providers"
)

func newProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.VisionProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		return gemini.New(cfg.GeminiAPIKey), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.VisionProvider)
	}
}

// newArchiveChain tries the bucket first and the shared folder second.
// Backends without configuration are left out.
func newArchiveChain(ctx context.Context, cfg *config.Config) (*archive.Chain, error) {
	var strategies []archive.Strategy

	if cfg.Bucket != "" {
		svc, err := gcp.NewStorage(ctx, cfg.Google)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, archive.NewGCS(svc, cfg.Google.ProjectID, cfg.Bucket))
	}

	if cfg.DriveFolderID != "" {
		svc, err := gcp.NewDrive(ctx, cfg.Google)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, archive.NewDrive(svc, cfg.DriveFolderID))
	}

	if len(strategies) == 0 {
		slog.Warn("No image archive configured, cards will sync without image links")
	}
	return archive.NewChain(strategies...), nil
}

func newLedger(ctx context.Context, cfg *config.Config) (*ledger.Ledger, error) {
	if cfg.SheetID == "" {
		slog.Warn("GOOGLE_SHEET_ID not set, keeping cards in memory only")
		return ledger.New(ledger.NewMemory()), nil
	}

	svc, err := gcp.NewSheets(ctx, cfg.Google)
	if err != nil {
		return nil, err
	}
	return ledger.New(ledger.NewSheets(svc, cfg.SheetID, cfg.SheetName)), nil
}
