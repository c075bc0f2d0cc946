package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment-level settings for the server and CLI
type Config struct {
	VisionProvider string
	Model          string
	FallbackModel  string

	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string

	Cooldown time.Duration

	Google Google

	Bucket        string
	DriveFolderID string
	SheetID       string
	SheetName     string

	APIRateLimit   int
	AllowedOrigins []string
}

// Google holds service account credentials. Either the individual key fields
// or CredentialsFile may be set; when neither is, application default
// credentials are used.
type Google struct {
	ProjectID       string
	PrivateKeyID    string
	PrivateKey      string
	ClientEmail     string
	ClientID        string
	CredentialsFile string
}

// HasServiceAccount reports whether inline service account fields are present
func (g Google) HasServiceAccount() bool {
	return g.ClientEmail != "" && g.PrivateKey != ""
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		VisionProvider: strings.ToLower(getenv("VISION_PROVIDER", "gemini")),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OllamaURL:      getenv("OLLAMA_URL", getenv("OLLAMA_HOST", "http://localhost:11434")),
		Google: Google{
			ProjectID:       os.Getenv("GOOGLE_PROJECT_ID"),
			PrivateKeyID:    os.Getenv("GOOGLE_PRIVATE_KEY_ID"),
			PrivateKey:      strings.ReplaceAll(os.Getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
			ClientEmail:     os.Getenv("GOOGLE_CLIENT_EMAIL"),
			ClientID:        os.Getenv("GOOGLE_CLIENT_ID"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		DriveFolderID: os.Getenv("GOOGLE_DRIVE_FOLDER_ID"),
		SheetID:       os.Getenv("GOOGLE_SHEET_ID"),
		SheetName:     getenv("GOOGLE_SHEET_NAME", "Sheet1"),
	}

	switch cfg.VisionProvider {
	case "gemini", "openai", "ollama":
	default:
		return nil, fmt.Errorf("unsupported VISION_PROVIDER: %s", cfg.VisionProvider)
	}

	cfg.Model, cfg.FallbackModel = defaultModels(cfg.VisionProvider)

	cfg.Bucket = os.Getenv("GCS_BUCKET")
	if cfg.Bucket == "" && cfg.Google.ProjectID != "" {
		cfg.Bucket = cfg.Google.ProjectID + "-business-cards"
	}

	cooldown, err := time.ParseDuration(getenv("SCAN_COOLDOWN", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCAN_COOLDOWN: %w", err)
	}
	cfg.Cooldown = cooldown

	limit, err := strconv.Atoi(getenv("API_RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT: %w", err)
	}
	cfg.APIRateLimit = limit

	for _, origin := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// defaultModels returns the primary and lighter fallback model for a provider
func defaultModels(provider string) (string, string) {
	switch provider {
	case "openai":
		model := getenv("OPENAI_MODEL", "gpt-4o")
		return model, getenv("OPENAI_FALLBACK_MODEL", "gpt-4o-mini")
	case "ollama":
		model := getenv("OLLAMA_MODEL", "mistral-small3.2:24b")
		return model, getenv("OLLAMA_FALLBACK_MODEL", model)
	default:
		return getenv("GEMINI_MODEL", "gemini-2.0-flash"), getenv("GEMINI_FALLBACK_MODEL", "gemini-2.0-flash-lite")
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
