package providers

import (
	"context"
)

// Config represents a single prompted request to a vision-capable LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       []byte
	MIMEType    string
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
