package runtime

import (
	"context"
	"fmt"

	"github.com/harunnryd/jarvis/internal/config"
	"github.com/harunnryd/jarvis/internal/model"
)

type RuntimeBuilder interface {
	WithContext(ctx context.Context) RuntimeBuilder
	WithConfig(cfg *config.Config) RuntimeBuilder
	WithStore(store StoreFactory) RuntimeBuilder
	WithRouter(router model.ModelRouter) RuntimeBuilder
	Build() (*RuntimeComponents, error)
}

type DefaultRuntimeBuilder struct {
	ctx    context.Context
	cfg    *config.Config
	store  StoreFactory
	router model.ModelRouter
}

func NewRuntimeBuilder() RuntimeBuilder {
	return &DefaultRuntimeBuilder{}
}

func (b *DefaultRuntimeBuilder) WithContext(ctx context.Context) RuntimeBuilder {
	b.ctx = ctx
	return b
}

func (b *DefaultRuntimeBuilder) WithConfig(cfg *config.Config) RuntimeBuilder {
	b.cfg = cfg
	return b
}

// WithStore overrides the store.backend selection.
func (b *DefaultRuntimeBuilder) WithStore(store StoreFactory) RuntimeBuilder {
	b.store = store
	return b
}

// WithRouter overrides the provider router built from models.registry.
func (b *DefaultRuntimeBuilder) WithRouter(router model.ModelRouter) RuntimeBuilder {
	b.router = router
	return b
}

func (b *DefaultRuntimeBuilder) Build() (*RuntimeComponents, error) {
	if b.ctx == nil {
		b.ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if b.store == nil {
		b.store = OpenStore
	}

	return NewRuntimeComponents(b.ctx, b.cfg, b.store, b.router)
}
