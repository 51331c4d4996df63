package providers

import (
	"context"

	"github.com/antique-korea/appraiser/internal/models"
)

// Request represents one generation request to a vision LLM provider.
type Request struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      []models.Image
}

// Provider defines the interface for a vision LLM provider. Generate makes
// exactly one attempt; retry policy belongs to the caller.
type Provider interface {
	// Name identifies the provider in status reports and logs.
	Name() string
	// Configured reports whether the provider has the credentials it
	// needs, without making a network call.
	Configured() bool
	Generate(ctx context.Context, req Request) (string, error)
}
