package outbound

import (
	"context"
	"encoding/json"
)

// GenerationProviderPort is a hosted image generation API.
type GenerationProviderPort interface {
	// Run generates from prompt and returns the provider output unchanged.
	Run(ctx context.Context, prompt json.RawMessage) (json.RawMessage, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
