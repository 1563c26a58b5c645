package model

import (
	"context"

	"github.com/harunnryd/jarvis/internal/model/contract"
)

// backend is the surface every concrete SDK wrapper under providers/ exposes.
type backend interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderAdapter binds a backend to the registry entry it was created for.
type ProviderAdapter struct {
	backend      backend
	name         string
	providerType string
}

func NewProviderAdapter(b backend, name, providerType string) *ProviderAdapter {
	return &ProviderAdapter{backend: b, name: name, providerType: providerType}
}

func (a *ProviderAdapter) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if req.Model == "" {
		req.Model = a.name
	}
	return a.backend.Generate(ctx, req)
}

func (a *ProviderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.backend.Embed(ctx, text)
}

func (a *ProviderAdapter) Name() string {
	return a.name
}

func (a *ProviderAdapter) Type() string {
	return a.providerType
}

func (a *ProviderAdapter) Health(ctx context.Context) error {
	return nil
}
