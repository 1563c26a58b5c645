package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/harunnryd/jarvis/internal/config"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/logger"
	"github.com/harunnryd/jarvis/internal/model/contract"
	anthropicProvider "github.com/harunnryd/jarvis/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/jarvis/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/jarvis/internal/model/providers/openai"
)

// DefaultModelRouter implements ModelRouter interface
type DefaultModelRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewModelRouter creates a router with one provider per registry entry.
// Entries that cannot be built (usually a missing API key) are skipped.
func NewModelRouter(cfg config.ModelsConfig) (*DefaultModelRouter, error) {
	router := &DefaultModelRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}

	if err := router.initProviders(); err != nil {
		return nil, err
	}

	return router, nil
}

// NewModelRouterWithProviders builds a router over already constructed providers.
func NewModelRouterWithProviders(cfg config.ModelsConfig, providers map[string]Provider) *DefaultModelRouter {
	r := &DefaultModelRouter{cfg: cfg, providers: make(map[string]Provider, len(providers))}
	for name, p := range providers {
		r.providers[name] = p
	}
	return r
}

// Route routes a completion request to the appropriate provider
func (r *DefaultModelRouter) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if model == "" {
		model = r.cfg.Default
	}
	slog.DebugContext(ctx, "Routing completion request", "model", model, "messages", len(req.Messages), "tools", len(req.Tools))

	provider, resolved, err := r.resolveProvider(ctx, model)
	if err != nil {
		return nil, err
	}

	return r.executeWithFallback(ctx, resolved, provider, req)
}

// RouteEmbedding routes an embedding request to the appropriate provider
func (r *DefaultModelRouter) RouteEmbedding(ctx context.Context, model string, text string) ([]float32, error) {
	if model == "" {
		model = r.cfg.Embedding
	}

	var lastErr error
	for _, tryModel := range r.embeddingTryOrder(model) {
		if err := ctx.Err(); err != nil {
			return nil, jarvisErrors.Wrap(err, "embedding request cancelled")
		}

		r.mu.RLock()
		provider, exists := r.providers[tryModel]
		r.mu.RUnlock()
		if !exists {
			continue
		}

		embeddings, err := provider.Embed(ctx, text)
		if err == nil {
			slog.DebugContext(ctx, "Embedding completed", "model", tryModel, "dims", len(embeddings))
			return embeddings, nil
		}

		if isEmbeddingUnsupported(err) {
			continue
		}

		lastErr = err
		slog.WarnContext(ctx, "Embedding failed for model, trying next model", "model", tryModel, "error", err)
	}

	if lastErr != nil {
		return nil, jarvisErrors.External("embedding", lastErr)
	}

	return nil, jarvisErrors.NotFound("no embedding-capable model configured")
}

func (r *DefaultModelRouter) embeddingTryOrder(requestedModel string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.providers)+1)
	order := make([]string, 0, len(r.providers)+1)

	appendUnique := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	appendUnique(requestedModel)

	registered := make([]string, 0, len(r.providers))
	for name := range r.providers {
		registered = append(registered, name)
	}
	sort.Strings(registered)

	for _, name := range registered {
		appendUnique(name)
	}

	return order
}

func isEmbeddingUnsupported(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "embedding not supported")
}

// ListModels returns all registered model names
func (r *DefaultModelRouter) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)

	return models
}

// Health checks the health of the router and its providers
func (r *DefaultModelRouter) Health(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.providers) == 0 {
		return jarvisErrors.NotFound("no model providers configured")
	}

	for name, provider := range r.providers {
		if err := provider.Health(ctx); err != nil {
			slog.Warn("Provider unhealthy", "provider", name, "error", err)
			return jarvisErrors.Transient(fmt.Sprintf("provider %s unhealthy", name))
		}
	}

	return nil
}

func (r *DefaultModelRouter) initProviders() error {
	for _, entry := range r.cfg.Registry {
		provider, err := r.createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}

		r.providers[entry.Name] = provider
		slog.Debug("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(r.providers) == 0 && len(r.cfg.Registry) > 0 {
		return jarvisErrors.InvalidInput("no model providers initialized; set GEMINI_API_KEY or configure models.registry")
	}

	return nil
}

func (r *DefaultModelRouter) resolveProvider(ctx context.Context, model string) (Provider, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", jarvisErrors.Wrap(err, "provider resolution cancelled")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, exists := r.providers[model]; exists {
		return provider, model, nil
	}

	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		if fallbackProvider, ok := r.providers[r.cfg.Fallback]; ok {
			slog.WarnContext(ctx, "Model not registered, using fallback", "model", model, "fallback", r.cfg.Fallback)
			return fallbackProvider, r.cfg.Fallback, nil
		}
	}

	return nil, "", jarvisErrors.NotFound(fmt.Sprintf("model %s not found", model))
}

// executeWithFallback tries the resolved model once and then the fallback model.
func (r *DefaultModelRouter) executeWithFallback(ctx context.Context, model string, provider Provider, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	maxAttempts := r.cfg.MaxFallbackAttempts
	if maxAttempts < 1 {
		maxAttempts = config.DefaultModelMaxFallbackAttempts
	}

	currentModel := model
	currentProvider := provider
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, jarvisErrors.Wrap(err, "request execution cancelled")
		}

		req.Model = currentModel
		resp, err := currentProvider.Generate(ctx, req)
		if err == nil {
			slog.DebugContext(ctx, "Request completed", "model", currentModel, "attempt", attempt+1, "trace_id", logger.GetTraceID(ctx))
			return resp, nil
		}
		lastErr = err

		slog.ErrorContext(ctx, "Provider request failed", "model", currentModel, "attempt", attempt+1, "error", err)

		if r.cfg.Fallback == "" || currentModel == r.cfg.Fallback {
			break
		}

		r.mu.RLock()
		fallbackProvider, exists := r.providers[r.cfg.Fallback]
		r.mu.RUnlock()
		if !exists {
			break
		}

		slog.InfoContext(ctx, "Attempting fallback", "from", currentModel, "to", r.cfg.Fallback)
		currentModel = r.cfg.Fallback
		currentProvider = fallbackProvider
	}

	return nil, jarvisErrors.External("model "+currentModel, jarvisErrors.MapError(lastErr))
}

func (r *DefaultModelRouter) createProvider(entry config.ModelRegistry) (Provider, error) {
	switch entry.Provider {
	case "gemini":
		if entry.APIKey == "" {
			return nil, jarvisErrors.InvalidInput("API key required for Gemini provider")
		}

		embedModel := ""
		if strings.Contains(entry.Name, "embedding") {
			embedModel = entry.Name
		}
		provider, err := geminiProvider.New(entry.APIKey, embedModel)
		if err != nil {
			return nil, jarvisErrors.External("gemini client", err)
		}
		return NewProviderAdapter(provider, entry.Name, "gemini"), nil

	case "openai":
		if entry.APIKey == "" {
			return nil, jarvisErrors.InvalidInput("API key required for OpenAI provider")
		}
		return NewProviderAdapter(openaiProvider.New(entry.APIKey, entry.BaseURL, entry.Name), entry.Name, "openai"), nil

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewProviderAdapter(openaiProvider.New(apiKey, baseURL, entry.Name), entry.Name, "ollama"), nil

	case "anthropic":
		if entry.APIKey == "" {
			return nil, jarvisErrors.InvalidInput("API key required for Anthropic provider")
		}
		return NewProviderAdapter(anthropicProvider.New(entry.APIKey), entry.Name, "anthropic"), nil

	default:
		return nil, jarvisErrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}
