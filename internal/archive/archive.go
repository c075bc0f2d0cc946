package archive

import (
	"context"
	"log/slog"
)

// Asset is an image to be archived
type Asset struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Strategy stores an asset in one backend and returns a public URL for it
type Strategy interface {
	Name() string
	Store(ctx context.Context, asset Asset) (string, error)
}

// Chain tries each strategy in order until one succeeds
type Chain struct {
	strategies []Strategy
}

// NewChain creates a chain over strategies, tried in the given order
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Archive returns the URL from the first strategy that succeeds, or "" if
// all fail. Failures are logged and never returned.
func (c *Chain) Archive(ctx context.Context, asset Asset) string {
	for _, s := range c.strategies {
		url, err := s.Store(ctx, asset)
		if err != nil {
			slog.Warn("Archive backend failed", "backend", s.Name(), "filename", asset.Filename, "err", err)
			continue
		}
		if url == "" {
			slog.Warn("Archive backend returned no URL", "backend", s.Name(), "filename", asset.Filename)
			continue
		}
		slog.Info("Image archived", "backend", s.Name(), "filename", asset.Filename)
		return url
	}

	if len(c.strategies) > 0 {
		slog.Warn("All archive backends failed, continuing without image link", "filename", asset.Filename)
	}
	return ""
}
