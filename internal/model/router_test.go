package model

import (
	"context"
	"errors"
	"testing"

	"github.com/harunnryd/jarvis/internal/config"
	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
	"github.com/harunnryd/jarvis/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*contract.CompletionResponse)
	return resp, args.Error(1)
}

func (m *MockBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	vec, _ := args.Get(0).([]float32)
	return vec, args.Error(1)
}

func newTestRouter(primary, fallback *MockBackend) *DefaultModelRouter {
	return NewModelRouterWithProviders(config.ModelsConfig{
		Default:             "gemini-2.5-flash",
		Fallback:            "gpt-4o-mini",
		Embedding:           "text-embedding-004",
		MaxFallbackAttempts: 2,
	}, map[string]Provider{
		"gemini-2.5-flash": NewProviderAdapter(primary, "gemini-2.5-flash", "gemini"),
		"gpt-4o-mini":      NewProviderAdapter(fallback, "gpt-4o-mini", "openai"),
	})
}

func TestRouteUsesDefaultModel(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	primary.On("Generate", mock.Anything, mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return req.Model == "gemini-2.5-flash"
	})).Return(&contract.CompletionResponse{Content: "hi"}, nil).Once()

	resp, err := r.Route(context.Background(), "", contract.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRouteFallsBackOnError(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	primary.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("500 internal")).Once()
	fallback.On("Generate", mock.Anything, mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return req.Model == "gpt-4o-mini"
	})).Return(&contract.CompletionResponse{Content: "from fallback"}, nil).Once()

	resp, err := r.Route(context.Background(), "gemini-2.5-flash", contract.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)
	primary.AssertExpectations(t)
	fallback.AssertExpectations(t)
}

func TestRouteBothFailIsExternal(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	primary.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	fallback.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("boom again")).Once()

	_, err := r.Route(context.Background(), "gemini-2.5-flash", contract.CompletionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, jarvisErrors.ErrExternalService)
}

func TestRouteRateLimitStaysTransient(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	primary.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("500 internal")).Once()
	fallback.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("429 Too Many Requests")).Once()

	_, err := r.Route(context.Background(), "gemini-2.5-flash", contract.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, jarvisErrors.IsCategory(err, jarvisErrors.ErrTransient))
	assert.True(t, jarvisErrors.IsRetryable(err))
	assert.Equal(t, "ErrTransient", jarvisErrors.Category(err))
	assert.Contains(t, err.Error(), "model gpt-4o-mini")
}

func TestRouteUnknownModelUsesFallback(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	fallback.On("Generate", mock.Anything, mock.Anything).Return(&contract.CompletionResponse{Content: "ok"}, nil).Once()

	resp, err := r.Route(context.Background(), "nope", contract.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestRouteEmbeddingSkipsUnsupported(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	primary.On("Embed", mock.Anything, "knee injury").Return(nil, errors.New("embedding not supported")).Maybe()
	fallback.On("Embed", mock.Anything, "knee injury").Return([]float32{0.1, 0.2}, nil).Once()

	vec, err := r.RouteEmbedding(context.Background(), "", "knee injury")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
}

func TestClientComplete(t *testing.T) {
	primary, fallback := new(MockBackend), new(MockBackend)
	r := newTestRouter(primary, fallback)

	primary.On("Generate", mock.Anything, mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return req.System == "coach" && len(req.Messages) == 1 && req.Messages[0].Content == "bench 60x10"
	})).Return(&contract.CompletionResponse{Content: "  Add weight next week.\n"}, nil).Once()

	c := NewClient(r, "gemini-2.5-flash", "ignored").WithSystem("coach")
	out, err := c.Complete(context.Background(), "bench 60x10")
	require.NoError(t, err)
	assert.Equal(t, "Add weight next week.", out)
}

func TestHealthWithoutProviders(t *testing.T) {
	r := NewModelRouterWithProviders(config.ModelsConfig{}, nil)
	assert.ErrorIs(t, r.Health(context.Background()), jarvisErrors.ErrNotFound)
}
